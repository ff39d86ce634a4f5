package kiosk

import (
	"errors"
	"sync"
	"time"
)

// FlowState 支付流程状态
type FlowState int

const (
	StateIdle FlowState = iota
	StateAmountChosen
	StateMethodChosen
	StateCompleting
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAmountChosen:
		return "amount_chosen"
	case StateMethodChosen:
		return "method_chosen"
	case StateCompleting:
		return "completing"
	}
	return "unknown"
}

// Method 支付方式
type Method int

const (
	MethodCard Method = iota
	MethodNFC
)

// SessionStatus 支付会话状态
type SessionStatus int

const (
	StatusPending SessionStatus = iota
	StatusSucceeded
	StatusCancelled
	StatusFailed
)

// Outcome 支付方式执行结果
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
)

// PaymentSession 一次支付会话。每台捐款箱同一时刻最多一个
type PaymentSession struct {
	Amount float64
	Method Method
	Status SessionStatus
}

// Dispatcher 支付方式执行器，结果对每个会话只回报一次
type Dispatcher interface {
	Dispatch(session *PaymentSession, report func(Outcome))
	Abort()
}

// DefaultReturnDelay 结果展示后回到金额选择页的停顿
const DefaultReturnDelay = 1500 * time.Millisecond

// PaymentFlowController 串起金额选择到回首页的整个流程。
// 状态循环：Idle → AmountChosen → MethodChosen → Completing → Idle。
// 除显式取消外没有其他退出路径（捐款箱锁定模式）
type PaymentFlowController struct {
	mu           sync.Mutex
	state        FlowState
	amount       float64
	session      *PaymentSession
	dispatcher   Dispatcher
	returnDelay  time.Duration
	returnTimer  *time.Timer
	disposed     bool
	onReturnHome func()
}

func NewPaymentFlowController(dispatcher Dispatcher, returnDelay time.Duration) *PaymentFlowController {
	if returnDelay <= 0 {
		returnDelay = DefaultReturnDelay
	}
	return &PaymentFlowController{
		dispatcher:  dispatcher,
		returnDelay: returnDelay,
	}
}

// SetOnReturnHome 设置回到金额选择页时的回调
func (fc *PaymentFlowController) SetOnReturnHome(hook func()) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.onReturnHome = hook
}

// ChooseAmount 确定捐款金额，来源是预设档位或数字键盘确认。
// 金额0是"等待自定义输入"的哨兵值，不允许进入流程
func (fc *PaymentFlowController) ChooseAmount(amount float64) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.disposed {
		return errors.New("controller disposed")
	}
	if fc.state != StateIdle {
		return errors.New("amount already chosen")
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}

	fc.amount = amount
	fc.state = StateAmountChosen
	return nil
}

// ChooseMethod 选择支付方式并创建会话，随后交给Dispatcher执行
func (fc *PaymentFlowController) ChooseMethod(method Method) error {
	fc.mu.Lock()

	if fc.disposed {
		fc.mu.Unlock()
		return errors.New("controller disposed")
	}
	if fc.state != StateAmountChosen {
		fc.mu.Unlock()
		return errors.New("no amount chosen")
	}

	session := &PaymentSession{
		Amount: fc.amount,
		Method: method,
		Status: StatusPending,
	}
	fc.session = session
	fc.state = StateMethodChosen
	fc.mu.Unlock()

	// 卡支付会同步回报，必须在锁外调用
	fc.dispatcher.Dispatch(session, fc.complete)
	return nil
}

// Cancel 用户显式取消。只在结果回报前有效
func (fc *PaymentFlowController) Cancel() error {
	fc.mu.Lock()

	switch fc.state {
	case StateAmountChosen:
		fc.resetLocked()
		fc.mu.Unlock()
		return nil
	case StateMethodChosen:
		if fc.session != nil && fc.session.Status != StatusPending {
			fc.mu.Unlock()
			return errors.New("payment already completed")
		}
		if fc.session != nil {
			fc.session.Status = StatusCancelled
		}
		fc.resetLocked()
		fc.mu.Unlock()
		// 终止可能还在监听NFC的执行器
		fc.dispatcher.Abort()
		return nil
	default:
		fc.mu.Unlock()
		return errors.New("nothing to cancel")
	}
}

// complete 接收执行结果，展示停顿后回首页。成功失败走同一条路，
// 捐款箱总能自行复位
func (fc *PaymentFlowController) complete(outcome Outcome) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.disposed || fc.state != StateMethodChosen || fc.session == nil {
		return
	}

	if outcome == OutcomeSucceeded {
		fc.session.Status = StatusSucceeded
	} else {
		fc.session.Status = StatusFailed
	}
	fc.state = StateCompleting

	fc.returnTimer = time.AfterFunc(fc.returnDelay, fc.returnHome)
}

// returnHome 定时器回调。控制器已销毁时什么都不做
func (fc *PaymentFlowController) returnHome() {
	fc.mu.Lock()
	if fc.disposed {
		fc.mu.Unlock()
		return
	}
	fc.resetLocked()
	hook := fc.onReturnHome
	fc.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Dispose 屏幕销毁时调用，取消未触发的定时器
func (fc *PaymentFlowController) Dispose() {
	fc.mu.Lock()
	fc.disposed = true
	if fc.returnTimer != nil {
		fc.returnTimer.Stop()
		fc.returnTimer = nil
	}
	fc.mu.Unlock()

	fc.dispatcher.Abort()
}

// resetLocked 丢弃会话回到Idle，调用方持锁
func (fc *PaymentFlowController) resetLocked() {
	fc.session = nil
	fc.amount = 0
	fc.state = StateIdle
	if fc.returnTimer != nil {
		fc.returnTimer.Stop()
		fc.returnTimer = nil
	}
}

func (fc *PaymentFlowController) State() FlowState {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.state
}

func (fc *PaymentFlowController) Amount() float64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.amount
}

// Session 当前会话，Idle时为nil
func (fc *PaymentFlowController) Session() *PaymentSession {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.session
}
