package kiosk

import (
	"errors"
	"sync"
	"testing"
)

// mockTag 和 mockAdapter 是函数字段风格的测试替身
type mockTag struct {
	connectErr error
	closed     bool
}

func (t *mockTag) Connect() error { return t.connectErr }
func (t *mockTag) Close() error {
	t.closed = true
	return nil
}

type mockAdapter struct {
	mu        sync.Mutex
	available bool
	enabled   bool
	onTag     func(Tag)
	enables   int
	disables  int
}

func (a *mockAdapter) Available() bool { return a.available }
func (a *mockAdapter) Enabled() bool   { return a.enabled }

func (a *mockAdapter) EnableDiscovery(onTag func(Tag)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTag = onTag
	a.enables++
}

func (a *mockAdapter) DisableDiscovery() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTag = nil
	a.disables++
}

// presentTag 模拟刷卡
func (a *mockAdapter) presentTag(tag Tag) bool {
	a.mu.Lock()
	onTag := a.onTag
	a.mu.Unlock()
	if onTag == nil {
		return false
	}
	onTag(tag)
	return true
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *outcomeRecorder) report(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) all() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

func TestDispatchCardSucceedsImmediately(t *testing.T) {
	md := NewMethodDispatcher(nil)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 25, Method: MethodCard, Status: StatusPending}, rec.report)

	got := rec.all()
	if len(got) != 1 || got[0] != OutcomeSucceeded {
		t.Fatalf("outcomes = %v, want [Succeeded]", got)
	}
}

func TestDispatchNFCFailsFastWhenDisabled(t *testing.T) {
	tests := []struct {
		name    string
		adapter NFCAdapter
	}{
		{"no adapter", nil},
		{"not available", &mockAdapter{available: false, enabled: false}},
		{"disabled", &mockAdapter{available: true, enabled: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := NewMethodDispatcher(tt.adapter)
			rec := &outcomeRecorder{}

			md.Dispatch(&PaymentSession{Amount: 10, Method: MethodNFC, Status: StatusPending}, rec.report)

			got := rec.all()
			if len(got) != 1 || got[0] != OutcomeFailed {
				t.Fatalf("outcomes = %v, want [Failed]", got)
			}
			// 不允许进入监听
			if md.Listening() {
				t.Error("dispatcher entered listening despite unavailable NFC")
			}
			if ma, ok := tt.adapter.(*mockAdapter); ok && ma.enables != 0 {
				t.Errorf("discovery enabled %d times, want 0", ma.enables)
			}
		})
	}
}

func TestDispatchNFCTagSuccess(t *testing.T) {
	adapter := &mockAdapter{available: true, enabled: true}
	md := NewMethodDispatcher(adapter)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 50, Method: MethodNFC, Status: StatusPending}, rec.report)

	if !md.Listening() {
		t.Fatal("dispatcher not listening after NFC dispatch")
	}

	tag := &mockTag{}
	if !adapter.presentTag(tag) {
		t.Fatal("discovery not enabled")
	}

	got := rec.all()
	if len(got) != 1 || got[0] != OutcomeSucceeded {
		t.Fatalf("outcomes = %v, want [Succeeded]", got)
	}
	if !tag.closed {
		t.Error("tag not closed after successful connect")
	}
	if adapter.disables == 0 {
		t.Error("discovery not disabled after tag presented")
	}
}

func TestDispatchNFCTagConnectErrorFails(t *testing.T) {
	adapter := &mockAdapter{available: true, enabled: true}
	md := NewMethodDispatcher(adapter)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 50, Method: MethodNFC, Status: StatusPending}, rec.report)
	adapter.presentTag(&mockTag{connectErr: errors.New("transceive failed")})

	got := rec.all()
	if len(got) != 1 || got[0] != OutcomeFailed {
		t.Fatalf("outcomes = %v, want [Failed]", got)
	}
}

func TestDispatchFocusLifecycle(t *testing.T) {
	adapter := &mockAdapter{available: true, enabled: true}
	md := NewMethodDispatcher(adapter)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 5, Method: MethodNFC, Status: StatusPending}, rec.report)
	if adapter.enables != 1 {
		t.Fatalf("enables = %d, want 1", adapter.enables)
	}

	// 失去前台焦点后发现窗口关闭
	md.OnFocusLost()
	if adapter.disables != 1 {
		t.Errorf("disables = %d, want 1", adapter.disables)
	}
	if adapter.presentTag(&mockTag{}) {
		t.Error("tag delivered while unfocused")
	}

	// 回到前台重新监听
	md.OnFocusGained()
	if adapter.enables != 2 {
		t.Errorf("enables = %d, want 2", adapter.enables)
	}
	adapter.presentTag(&mockTag{})

	got := rec.all()
	if len(got) != 1 || got[0] != OutcomeSucceeded {
		t.Fatalf("outcomes = %v, want [Succeeded]", got)
	}
}

func TestDispatchReportsExactlyOnce(t *testing.T) {
	adapter := &mockAdapter{available: true, enabled: true}
	md := NewMethodDispatcher(adapter)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 5, Method: MethodNFC, Status: StatusPending}, rec.report)

	onTag := adapter.onTag
	adapter.presentTag(&mockTag{})
	// 同一回调再触发一次，不允许第二次回报
	if onTag != nil {
		onTag(&mockTag{})
	}

	if got := rec.all(); len(got) != 1 {
		t.Fatalf("reported %d times, want 1", len(got))
	}
}

func TestDispatchAbortStopsListening(t *testing.T) {
	adapter := &mockAdapter{available: true, enabled: true}
	md := NewMethodDispatcher(adapter)
	rec := &outcomeRecorder{}

	md.Dispatch(&PaymentSession{Amount: 5, Method: MethodNFC, Status: StatusPending}, rec.report)
	onTag := adapter.onTag

	md.Abort()
	if adapter.disables == 0 {
		t.Error("discovery not disabled on abort")
	}

	// 中止后迟到的标签不再回报
	if onTag != nil {
		onTag(&mockTag{})
	}
	if got := rec.all(); len(got) != 0 {
		t.Fatalf("outcomes = %v after abort, want none", got)
	}
}
