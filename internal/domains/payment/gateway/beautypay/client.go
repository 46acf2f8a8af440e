package beautypay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"beautybook-backend/internal/config"
	"beautybook-backend/internal/domains/payment/gateway"
	"beautybook-backend/internal/domains/payment/model"
)

const signatureHeader = "X-Signature"

// =====================================================
// BEAUTYPAY CLIENT
// =====================================================

// Client talks to the BeautyPay HTTP API. Every request body is signed
// with HMAC-SHA256 in the X-Signature header; webhook bodies coming back
// are signed the same way.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
}

func NewClient(cfg config.GatewayConfig) gateway.Gateway {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// =====================================================
// INITIATE PAYMENT
// =====================================================

func (c *Client) InitiatePayment(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	body := map[string]interface{}{
		"merchant_id": c.cfg.MerchantID,
		"reference":   req.Reference,
		"amount":      req.Amount.StringFixed(2),
		"currency":    req.Currency,
		"order_info":  req.OrderInfo,
		"return_url":  req.ReturnURL,
		"webhook_url": c.cfg.WebhookURL,
	}

	respData, err := c.post(ctx, "/v1/payments", body)
	if err != nil {
		return nil, err
	}

	transactionID, _ := respData["transaction_id"].(string)
	redirectURL, _ := respData["redirect_url"].(string)
	if transactionID == "" || redirectURL == "" {
		return nil, fmt.Errorf("initiate payment: incomplete gateway response: %w", model.ErrGatewayUnavailable)
	}

	return &gateway.InitiateResult{
		TransactionID: transactionID,
		RedirectURL:   redirectURL,
	}, nil
}

// =====================================================
// PAYMENT STATUS
// =====================================================

func (c *Client) GetPaymentStatus(ctx context.Context, transactionID string) (*gateway.StatusResult, error) {
	respData, err := c.post(ctx, "/v1/payments/status", map[string]interface{}{
		"merchant_id":    c.cfg.MerchantID,
		"transaction_id": transactionID,
	})
	if err != nil {
		return nil, err
	}

	status, _ := respData["status"].(string)
	return &gateway.StatusResult{
		TransactionID: transactionID,
		Status:        status,
		RawPayload:    respData,
	}, nil
}

// =====================================================
// REFUND
// =====================================================

func (c *Client) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	respData, err := c.post(ctx, "/v1/refunds", map[string]interface{}{
		"merchant_id":    c.cfg.MerchantID,
		"transaction_id": req.TransactionID,
		"amount":         req.Amount.StringFixed(2),
		"comment":        req.Comment,
	})
	if err != nil {
		return nil, err
	}

	refundID, _ := respData["refund_id"].(string)
	status, _ := respData["status"].(string)
	message, _ := respData["message"].(string)

	return &gateway.RefundResult{
		RefundID:    refundID,
		Accepted:    status == "accepted",
		Message:     message,
		RawResponse: respData,
	}, nil
}

// =====================================================
// SIGNATURE VERIFICATION
// =====================================================

func (c *Client) VerifySignature(signature string, body []byte) bool {
	return Verify(signature, body, c.cfg.WebhookSecret)
}

// =====================================================
// HTTP PLUMBING
// =====================================================

// post sends a signed JSON request and decodes the JSON answer. Transport
// failures and non-2xx statuses both surface as ErrGatewayUnavailable so
// callers can roll back and let the client retry.
func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (map[string]interface{}, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(signatureHeader, Sign(bodyJSON, c.cfg.WebhookSecret))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gateway: %v: %w", err, model.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %v: %w", err, model.ErrGatewayUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, model.ErrGatewayUnavailable)
	}

	var respData map[string]interface{}
	if err := json.Unmarshal(respBytes, &respData); err != nil {
		return nil, fmt.Errorf("unmarshal gateway response: %v: %w", err, model.ErrGatewayUnavailable)
	}

	return respData, nil
}
