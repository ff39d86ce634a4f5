package models

import (
	"time"
)

// DonationRecord 已完成捐款记录（只追加，不修改不删除）
type DonationRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Amount          float64   `gorm:"type:decimal(10,2)" json:"amount"`
	PaymentIntentID string    `gorm:"size:64;index" json:"payment_intent_id"` // 支付意向ID，如 pi_xxx
	Status          string    `gorm:"size:20;index" json:"status"`            // completed
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                // 服务端写入时间
}

// DailySummary 当日捐款汇总，按需计算，不落库
type DailySummary struct {
	Date          string  `json:"date"` // ISO日期，如 2026-09-01
	TotalAmount   float64 `json:"totalAmount"`
	TotalCount    int     `json:"totalCount"`
	AverageAmount float64 `json:"averageAmount"`
}
