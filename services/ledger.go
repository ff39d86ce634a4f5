package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mosque/tap2give/models"
	"gorm.io/gorm"
)

// LedgerStore 捐款记录存储。Append只追加，已有行不修改不删除
type LedgerStore interface {
	Append(ctx context.Context, record *models.DonationRecord) error
	RecordsBetween(ctx context.Context, from, to time.Time) ([]models.DonationRecord, error)
}

// DonationLedger 捐款台账：记录已完成捐款，按需计算当日汇总
type DonationLedger struct {
	store LedgerStore
}

func NewDonationLedger(store LedgerStore) *DonationLedger {
	return &DonationLedger{store: store}
}

// LogDonation 追加一条已完成捐款记录，时间戳由服务端分配
func (dl *DonationLedger) LogDonation(ctx context.Context, amount float64, paymentIntentID string) (*models.DonationRecord, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid donation amount: %v", amount)
	}
	if paymentIntentID == "" {
		return nil, fmt.Errorf("missing payment intent id")
	}

	record := &models.DonationRecord{
		Amount:          amount,
		PaymentIntentID: paymentIntentID,
		Status:          "completed",
		CreatedAt:       time.Now(),
	}
	if err := dl.store.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// DailySummary 计算now所在自然日（本地时区，零点为界）的捐款汇总。
// 每次扫描当日记录实时求和，不维护预计算的计数器
func (dl *DonationLedger) DailySummary(ctx context.Context, now time.Time) (models.DailySummary, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	summary := models.DailySummary{
		Date: startOfDay.Format("2006-01-02"),
	}

	records, err := dl.store.RecordsBetween(ctx, startOfDay, endOfDay)
	if err != nil {
		return summary, err
	}

	for _, record := range records {
		if record.Amount <= 0 || record.Status != "completed" {
			continue
		}
		summary.TotalAmount += record.Amount
		summary.TotalCount++
	}
	if summary.TotalCount > 0 {
		summary.AverageAmount = summary.TotalAmount / float64(summary.TotalCount)
	}

	return summary, nil
}

// GormLedgerStore MySQL存储，生产环境使用
type GormLedgerStore struct {
	db *gorm.DB
}

func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

func (s *GormLedgerStore) Append(ctx context.Context, record *models.DonationRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *GormLedgerStore) RecordsBetween(ctx context.Context, from, to time.Time) ([]models.DonationRecord, error) {
	var records []models.DonationRecord
	err := s.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ? AND status = ?", from, to, "completed").
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MemoryLedgerStore 内存存储。数据库连不上时的降级方案，也用于测试。
// 进程重启后记录丢失
type MemoryLedgerStore struct {
	mu      sync.RWMutex
	nextID  uint
	records []models.DonationRecord
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{nextID: 1}
}

func (s *MemoryLedgerStore) Append(ctx context.Context, record *models.DonationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = s.nextID
	s.nextID++
	s.records = append(s.records, *record)
	return nil
}

func (s *MemoryLedgerStore) RecordsBetween(ctx context.Context, from, to time.Time) ([]models.DonationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DonationRecord
	for _, record := range s.records {
		if !record.CreatedAt.Before(from) && record.CreatedAt.Before(to) {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
