package services

import (
	"context"
	"strings"
	"testing"
)

func TestSimulatedProviderShapes(t *testing.T) {
	sp := NewSimulatedProvider()
	ctx := context.Background()

	secret, err := sp.CreateConnectionToken(ctx)
	if err != nil {
		t.Fatalf("connection token: %v", err)
	}
	if !strings.HasPrefix(secret, "tok_") {
		t.Errorf("secret = %q, want tok_ prefix", secret)
	}

	intent, err := sp.CreatePaymentIntent(ctx, 2500, "usd")
	if err != nil {
		t.Fatalf("payment intent: %v", err)
	}
	if !strings.HasPrefix(intent.ID, "pi_") {
		t.Errorf("id = %q, want pi_ prefix", intent.ID)
	}
	if !strings.Contains(intent.ClientSecret, "_secret_") {
		t.Errorf("client secret = %q, want _secret_ marker", intent.ClientSecret)
	}

	// ID 不重复
	second, err := sp.CreatePaymentIntent(ctx, 2500, "usd")
	if err != nil {
		t.Fatalf("payment intent: %v", err)
	}
	if second.ID == intent.ID {
		t.Error("duplicate intent IDs")
	}
}

func TestSimulatedProviderHonorsContext(t *testing.T) {
	sp := NewSimulatedProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sp.CreateConnectionToken(ctx); err == nil {
		t.Error("cancelled context accepted for token")
	}
	if _, err := sp.CreatePaymentIntent(ctx, 100, "usd"); err == nil {
		t.Error("cancelled context accepted for intent")
	}
}

func TestIsPlaceholderKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", true},
		{"your-stripe-secret-key-here", true},
		{"sk_test_abc123", false},
		{"sk_live_abc123", false},
	}
	for _, tt := range tests {
		if got := IsPlaceholderKey(tt.key); got != tt.want {
			t.Errorf("IsPlaceholderKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
