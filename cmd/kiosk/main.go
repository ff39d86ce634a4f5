package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sync"
	"time"

	"github.com/mosque/tap2give/kiosk"
)

// simTag 模拟NFC标签
type simTag struct {
	connectErr error
}

func (t *simTag) Connect() error { return t.connectErr }
func (t *simTag) Close() error   { return nil }

// simAdapter 模拟NFC适配器，发现窗口打开后延迟呈现一个标签
type simAdapter struct {
	mu       sync.Mutex
	enabled  bool
	tagDelay time.Duration
	tag      kiosk.Tag
}

func (a *simAdapter) Available() bool { return true }

func (a *simAdapter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

func (a *simAdapter) EnableDiscovery(onTag func(kiosk.Tag)) {
	tag := a.tag
	time.AfterFunc(a.tagDelay, func() {
		onTag(tag)
	})
}

func (a *simAdapter) DisableDiscovery() {}

func main() {
	backend := flag.String("backend", "http://localhost:9090", "payment backend base URL")
	flag.Parse()

	client := kiosk.NewBackendClient(*backend)
	ctx := context.Background()

	log.Printf("=== tap2give kiosk simulator ===")
	log.Printf("Backend: %s", *backend)

	// 终端启动，先取一个连接令牌
	secret, err := client.CreateConnectionToken(ctx)
	if err != nil {
		log.Fatalf("Connection token failed: %v", err)
	}
	log.Printf("Terminal connection token: %s...", truncateSecret(secret))

	// 场景一：预设档位 $25，刷卡支付
	runDonation(ctx, client, pickPreset(25), kiosk.MethodCard)

	// 场景二：数字键盘输入 $120，NFC支付
	entry := kiosk.NewCustomAmountEntry(func(digits int) {
		log.Printf("Entry display: $%d", digits)
	})
	entry.Digit(1)
	entry.Digit(2)
	entry.Digit(0)
	amount, err := entry.Confirm()
	if err != nil {
		log.Fatalf("Entry confirm failed: %v", err)
	}
	runDonation(ctx, client, amount, kiosk.MethodNFC)

	// 当日汇总
	summary, err := client.DailySummary(ctx)
	if err != nil {
		log.Fatalf("Daily summary failed: %v", err)
	}
	log.Printf("Daily summary %s: total $%.2f, count %d, average $%.2f",
		summary.Date, summary.TotalAmount, summary.TotalCount, summary.AverageAmount)
}

// truncateSecret 日志里只露出令牌前缀
func truncateSecret(secret string) string {
	if len(secret) <= 12 {
		return secret
	}
	return secret[:12]
}

// pickPreset 从档位表中取指定金额
func pickPreset(value float64) float64 {
	for _, entry := range kiosk.Catalog() {
		if !entry.IsCustom && entry.Value == value {
			return entry.Value
		}
	}
	log.Fatalf("Preset $%v not in catalog", value)
	return 0
}

// runDonation 跑完整的一次捐款流程：选金额、选方式、等结果、上报后端
func runDonation(ctx context.Context, client *kiosk.BackendClient, amount float64, method kiosk.Method) {
	adapter := &simAdapter{
		enabled:  true,
		tagDelay: 200 * time.Millisecond,
		tag:      &simTag{},
	}
	dispatcher := kiosk.NewMethodDispatcher(adapter)
	flow := kiosk.NewPaymentFlowController(dispatcher, 300*time.Millisecond)
	defer flow.Dispose()

	home := make(chan struct{})
	flow.SetOnReturnHome(func() { close(home) })

	if err := flow.ChooseAmount(amount); err != nil {
		log.Fatalf("Choose amount failed: %v", err)
	}
	log.Printf("Amount chosen: $%.2f", amount)

	if err := flow.ChooseMethod(method); err != nil {
		log.Fatalf("Choose method failed: %v", err)
	}

	// 等流程走完回到首页
	select {
	case <-home:
	case <-time.After(5 * time.Second):
		log.Fatalf("Flow did not return to idle")
	}

	session := flow.Session()
	if session != nil {
		log.Fatalf("Session not discarded after cycle")
	}
	log.Printf("Flow returned to idle")

	// 成功后走真实收款路径：创建支付意向并上报台账
	intent, err := client.CreatePaymentIntent(ctx, int64(amount*100), "usd")
	if err != nil {
		log.Printf("PaymentIntent failed, donation not logged: %v", err)
		return
	}
	log.Printf("PaymentIntent: %s", intent.ID)

	if err := client.LogDonation(ctx, amount, intent.ID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("LogDonation timed out: %v", err)
			return
		}
		log.Printf("LogDonation failed: %v", err)
		return
	}
	log.Printf("Donation logged: $%.2f", amount)
}
