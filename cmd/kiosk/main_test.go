package main

import "testing"

func TestTruncateSecret(t *testing.T) {
	tests := []struct {
		secret string
		want   string
	}{
		{"", ""},
		{"tok", "tok"},
		{"tok_exactly12", "tok_exactly1"},
		{"tok_simulated_abcdef123456", "tok_simulate"},
	}
	for _, tt := range tests {
		if got := truncateSecret(tt.secret); got != tt.want {
			t.Errorf("truncateSecret(%q) = %q, want %q", tt.secret, got, tt.want)
		}
	}
}
