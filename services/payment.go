package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// IntentSourceMarker 支付意向的来源标记，写入Stripe metadata
const IntentSourceMarker = "tap2give_terminal"

// PaymentIntent 支付意向创建结果
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider 上游支付服务抽象：签发终端连接令牌、创建支付意向
type PaymentProvider interface {
	CreateConnectionToken(ctx context.Context) (string, error)
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error)
}

// StripeConfig Stripe配置
type StripeConfig struct {
	SecretKey string // 从环境变量或配置文件读取，不允许硬编码
}

// StripeProvider 对接Stripe Terminal的支付服务
type StripeProvider struct {
	config StripeConfig
	sc     *client.API
}

func NewStripeProvider(config StripeConfig) *StripeProvider {
	// 创建HTTP客户端连接池，Stripe SDK复用
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	sc := &client.API{}
	sc.Init(config.SecretKey, stripe.NewBackends(httpClient))

	return &StripeProvider{
		config: config,
		sc:     sc,
	}
}

// CreateConnectionToken 为现场支付终端签发连接令牌
func (sp *StripeProvider) CreateConnectionToken(ctx context.Context) (string, error) {
	params := &stripe.TerminalConnectionTokenParams{}
	params.Context = ctx

	token, err := sp.sc.TerminalConnectionTokens.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe connection token: %w", err)
	}

	log.Printf("Connection token created for terminal")
	return token.Secret, nil
}

// CreatePaymentIntent 创建支付意向，金额单位为美分
func (sp *StripeProvider) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("source", IntentSourceMarker)

	pi, err := sp.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}

	log.Printf("PaymentIntent created: %s for $%.2f", pi.ID, float64(amount)/100)
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// SimulatedProvider 模拟支付服务。未配置真实密钥时使用，
// 签发的令牌和意向ID仅在本机有效，金额不会真实扣款
type SimulatedProvider struct{}

func NewSimulatedProvider() *SimulatedProvider {
	return &SimulatedProvider{}
}

func (sp *SimulatedProvider) CreateConnectionToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	secret := "tok_simulated_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	log.Printf("Simulated connection token created")
	return secret, nil
}

func (sp *SimulatedProvider) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (*PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "pi_simulated_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	log.Printf("Simulated PaymentIntent created: %s for $%.2f %s", id, float64(amount)/100, currency)
	return &PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.New().String()[:8],
	}, nil
}

// IsPlaceholderKey 判断密钥是否为占位值（未配置真实Stripe密钥）
func IsPlaceholderKey(key string) bool {
	if key == "" {
		return true
	}
	return strings.Contains(key, "your-stripe-secret-key")
}
