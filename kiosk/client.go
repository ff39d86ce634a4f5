package kiosk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IntentResult 支付意向创建结果
type IntentResult struct {
	ClientSecret string `json:"client_secret"`
	ID           string `json:"id"`
}

// SummaryResult 当日汇总查询结果
type SummaryResult struct {
	Date          string  `json:"date"`
	TotalAmount   float64 `json:"totalAmount"`
	TotalCount    int     `json:"totalCount"`
	AverageAmount float64 `json:"averageAmount"`
}

// apiError 后端的结构化错误响应
type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// BackendClient 捐款箱到支付后端的HTTP客户端
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBackendClient(baseURL string) *BackendClient {
	// HTTP客户端连接池
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: 30 * time.Second,
	}

	return &BackendClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// CreateConnectionToken 获取支付终端连接令牌
func (bc *BackendClient) CreateConnectionToken(ctx context.Context) (string, error) {
	var resp struct {
		Secret string `json:"secret"`
	}
	if err := bc.post(ctx, "/api/createConnectionToken", nil, &resp); err != nil {
		return "", err
	}
	return resp.Secret, nil
}

// CreatePaymentIntent 创建支付意向，金额单位为美分
func (bc *BackendClient) CreatePaymentIntent(ctx context.Context, amountCents int64, currency string) (*IntentResult, error) {
	req := map[string]interface{}{
		"amount": amountCents,
	}
	if currency != "" {
		req["currency"] = currency
	}

	var resp IntentResult
	if err := bc.post(ctx, "/api/createPaymentIntent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogDonation 上报一笔已完成捐款
func (bc *BackendClient) LogDonation(ctx context.Context, amount float64, paymentIntentID string) error {
	req := map[string]interface{}{
		"amount":          amount,
		"paymentIntentId": paymentIntentID,
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := bc.post(ctx, "/api/logDonation", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("donation not acknowledged: %s", resp.Message)
	}
	return nil
}

// DailySummary 查询当日捐款汇总
func (bc *BackendClient) DailySummary(ctx context.Context) (*SummaryResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.baseURL+"/api/getDailySummary", nil)
	if err != nil {
		return nil, err
	}

	var resp SummaryResult
	if err := bc.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (bc *BackendClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, bc.baseURL+path, reader)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return bc.do(httpReq, out)
}

// do 发送请求。非200响应解析为结构化错误返回，不会panic
func (bc *BackendClient) do(req *http.Request, out interface{}) error {
	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}
