package kiosk

import (
	"errors"
)

// EntryCap 自定义金额上限（整美元）
const EntryCap = 9999

// ErrNoAmount 未输入金额就点了确认
var ErrNoAmount = errors.New("Please enter an amount")

// CustomAmountEntry 自定义金额数字键盘状态机。
// 只接受整美元，digits在任意时刻不超过EntryCap
type CustomAmountEntry struct {
	digits  int
	open    bool
	refresh func(digits int) // 显示刷新回调，没有界面时为nil
}

func NewCustomAmountEntry(refresh func(int)) *CustomAmountEntry {
	e := &CustomAmountEntry{
		open:    true,
		refresh: refresh,
	}
	e.updateDisplay()
	return e
}

// Digit 追加一位数字。超出上限的输入直接忽略
func (e *CustomAmountEntry) Digit(d int) {
	if !e.open || d < 0 || d > 9 {
		return
	}
	next := e.digits*10 + d
	if next > EntryCap {
		return
	}
	e.digits = next
	e.updateDisplay()
}

// Clear 清零
func (e *CustomAmountEntry) Clear() {
	if !e.open {
		return
	}
	e.digits = 0
	e.updateDisplay()
}

// Backspace 删掉最后一位，0时无操作
func (e *CustomAmountEntry) Backspace() {
	if !e.open {
		return
	}
	e.digits = e.digits / 10
	e.updateDisplay()
}

// Confirm 确认输入。digits为0时返回ErrNoAmount且键盘保持打开
func (e *CustomAmountEntry) Confirm() (float64, error) {
	if !e.open {
		return 0, errors.New("entry is closed")
	}
	if e.digits == 0 {
		return 0, ErrNoAmount
	}
	amount := float64(e.digits)
	e.open = false
	return amount, nil
}

// Cancel 放弃输入并关闭键盘
func (e *CustomAmountEntry) Cancel() {
	e.digits = 0
	e.open = false
}

func (e *CustomAmountEntry) Digits() int {
	return e.digits
}

func (e *CustomAmountEntry) IsOpen() bool {
	return e.open
}

func (e *CustomAmountEntry) updateDisplay() {
	if e.refresh != nil {
		e.refresh(e.digits)
	}
}
