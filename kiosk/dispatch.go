package kiosk

import (
	"log"
	"sync"
)

// Tag 一次NFC刷卡呈现的标签。字节级协议在适配层处理，
// 这里只关心能否建立连接
type Tag interface {
	Connect() error
	Close() error
}

// NFCAdapter NFC硬件抽象
type NFCAdapter interface {
	Available() bool
	Enabled() bool
	EnableDiscovery(onTag func(Tag))
	DisableDiscovery()
}

type nfcPhase int

const (
	phaseIdle nfcPhase = iota
	phaseListening
	phaseTagPresented
	phaseDone
)

// MethodDispatcher 执行所选支付方式。
// 卡路径模拟立即成功；NFC路径等待标签发现事件，
// 监听窗口跟随屏幕的前台焦点开关
type MethodDispatcher struct {
	adapter NFCAdapter

	mu       sync.Mutex
	phase    nfcPhase
	focused  bool
	report   func(Outcome)
	reported bool
}

func NewMethodDispatcher(adapter NFCAdapter) *MethodDispatcher {
	return &MethodDispatcher{
		adapter: adapter,
		focused: true, // 发起支付时屏幕必然在前台
	}
}

// Dispatch 执行会话的支付方式，结果通过report回报且只回报一次
func (md *MethodDispatcher) Dispatch(session *PaymentSession, report func(Outcome)) {
	md.mu.Lock()
	md.report = report
	md.reported = false
	md.phase = phaseIdle
	md.mu.Unlock()

	switch session.Method {
	case MethodCard:
		// 模拟刷卡立即成功，真实收款走后端支付意向流程
		log.Printf("Card payment simulated for $%.2f", session.Amount)
		md.reportOnce(OutcomeSucceeded)

	case MethodNFC:
		if md.adapter == nil || !md.adapter.Available() || !md.adapter.Enabled() {
			// 没有NFC硬件或被禁用，不进入监听直接失败
			log.Printf("NFC unavailable, failing fast")
			md.reportOnce(OutcomeFailed)
			return
		}

		md.mu.Lock()
		md.phase = phaseListening
		focused := md.focused
		md.mu.Unlock()

		if focused {
			md.adapter.EnableDiscovery(md.handleTag)
		}
	}
}

// handleTag 标签发现回调。连接失败只记日志，按支付失败处理
func (md *MethodDispatcher) handleTag(tag Tag) {
	md.mu.Lock()
	if md.phase != phaseListening || md.reported {
		md.mu.Unlock()
		return
	}
	md.phase = phaseTagPresented
	md.mu.Unlock()

	md.adapter.DisableDiscovery()

	if err := tag.Connect(); err != nil {
		log.Printf("NFC tag connect failed: %v", err)
		md.reportOnce(OutcomeFailed)
		return
	}
	if err := tag.Close(); err != nil {
		log.Printf("NFC tag close failed: %v", err)
	}

	md.reportOnce(OutcomeSucceeded)
}

// OnFocusGained 屏幕回到前台，恢复监听
func (md *MethodDispatcher) OnFocusGained() {
	md.mu.Lock()
	md.focused = true
	listening := md.phase == phaseListening && !md.reported
	md.mu.Unlock()

	if listening {
		md.adapter.EnableDiscovery(md.handleTag)
	}
}

// OnFocusLost 屏幕失去前台，关闭发现窗口，不留悬挂的监听
func (md *MethodDispatcher) OnFocusLost() {
	md.mu.Lock()
	md.focused = false
	listening := md.phase == phaseListening
	md.mu.Unlock()

	if listening {
		md.adapter.DisableDiscovery()
	}
}

// Abort 会话被取消或屏幕销毁，停止监听并吞掉之后的回报
func (md *MethodDispatcher) Abort() {
	md.mu.Lock()
	wasListening := md.phase == phaseListening
	md.reported = true
	md.phase = phaseDone
	md.mu.Unlock()

	if wasListening && md.adapter != nil {
		md.adapter.DisableDiscovery()
	}
}

func (md *MethodDispatcher) reportOnce(outcome Outcome) {
	md.mu.Lock()
	if md.reported || md.report == nil {
		md.mu.Unlock()
		return
	}
	md.reported = true
	md.phase = phaseDone
	report := md.report
	md.mu.Unlock()

	report(outcome)
}

// Listening 是否处于NFC发现窗口，测试用
func (md *MethodDispatcher) Listening() bool {
	md.mu.Lock()
	defer md.mu.Unlock()
	return md.phase == phaseListening
}
