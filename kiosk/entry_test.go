package kiosk

import (
	"errors"
	"testing"
)

func TestCatalogFixedEntries(t *testing.T) {
	catalog := Catalog()
	if len(catalog) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(catalog))
	}

	wantValues := []float64{5, 10, 25, 50, 100, 0}
	customCount := 0
	for i, entry := range catalog {
		if entry.Value != wantValues[i] {
			t.Errorf("entry %d: value = %v, want %v", i, entry.Value, wantValues[i])
		}
		if entry.IsCustom {
			customCount++
			if entry.Value != 0 {
				t.Errorf("custom entry has value %v, want 0", entry.Value)
			}
		} else if entry.Value <= 0 {
			t.Errorf("entry %d: preset value %v not positive", i, entry.Value)
		}
	}
	if customCount != 1 {
		t.Errorf("custom entries = %d, want 1", customCount)
	}
}

func TestEntryDigitSequences(t *testing.T) {
	tests := []struct {
		name   string
		digits []int
		want   int
	}{
		{"single digit", []int{7}, 7},
		{"one twenty", []int{1, 2, 0}, 120},
		{"leading zeros", []int{0, 0, 5}, 5},
		{"four digits max", []int{9, 9, 9, 9}, 9999},
		{"fifth digit blocked", []int{9, 9, 9, 9, 1}, 9999},
		{"cap blocks overflow", []int{1, 5, 0, 0, 0}, 1500},
		{"rejects out of range", []int{1, 10, -1, 2}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewCustomAmountEntry(nil)
			for _, d := range tt.digits {
				e.Digit(d)
			}
			if got := e.Digits(); got != tt.want {
				t.Errorf("digits = %d, want %d", got, tt.want)
			}
			if e.Digits() > EntryCap {
				t.Errorf("digits %d exceeds cap", e.Digits())
			}
		})
	}
}

func TestEntryBackspace(t *testing.T) {
	e := NewCustomAmountEntry(nil)
	for _, d := range []int{1, 2, 3} {
		e.Digit(d)
	}

	e.Backspace()
	if e.Digits() != 12 {
		t.Errorf("after backspace digits = %d, want 12", e.Digits())
	}
	e.Backspace()
	e.Backspace()
	if e.Digits() != 0 {
		t.Errorf("digits = %d, want 0", e.Digits())
	}

	// 0 上退格是无操作
	e.Backspace()
	if e.Digits() != 0 {
		t.Errorf("backspace on zero changed digits to %d", e.Digits())
	}
}

func TestEntryClear(t *testing.T) {
	e := NewCustomAmountEntry(nil)
	e.Digit(4)
	e.Digit(2)
	e.Clear()
	if e.Digits() != 0 {
		t.Errorf("digits = %d after clear, want 0", e.Digits())
	}
}

func TestEntryConfirmZeroRejected(t *testing.T) {
	e := NewCustomAmountEntry(nil)

	amount, err := e.Confirm()
	if !errors.Is(err, ErrNoAmount) {
		t.Fatalf("err = %v, want ErrNoAmount", err)
	}
	if amount != 0 {
		t.Errorf("amount = %v, want 0", amount)
	}
	// 拒绝后键盘保持打开
	if !e.IsOpen() {
		t.Error("entry closed after rejected confirm")
	}

	e.Digit(3)
	amount, err = e.Confirm()
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if amount != 3 {
		t.Errorf("amount = %v, want 3", amount)
	}
	if e.IsOpen() {
		t.Error("entry still open after confirm")
	}
}

func TestEntryCancelDiscards(t *testing.T) {
	e := NewCustomAmountEntry(nil)
	e.Digit(9)
	e.Cancel()

	if e.IsOpen() {
		t.Error("entry still open after cancel")
	}
	if e.Digits() != 0 {
		t.Errorf("digits = %d after cancel, want 0", e.Digits())
	}

	// 关闭后的输入全部忽略
	e.Digit(5)
	if e.Digits() != 0 {
		t.Errorf("closed entry accepted digit, digits = %d", e.Digits())
	}
}

func TestEntryDisplayRefresh(t *testing.T) {
	var shown []int
	e := NewCustomAmountEntry(func(digits int) {
		shown = append(shown, digits)
	})

	e.Digit(1)
	e.Digit(2)
	e.Backspace()
	e.Clear()

	want := []int{0, 1, 12, 1, 0}
	if len(shown) != len(want) {
		t.Fatalf("refresh calls = %v, want %v", shown, want)
	}
	for i := range want {
		if shown[i] != want[i] {
			t.Errorf("refresh %d = %d, want %d", i, shown[i], want[i])
		}
	}
}
