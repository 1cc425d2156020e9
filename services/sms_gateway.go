package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mobirepair/mobirepair-api/config"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
)

// SMSGateway delivers a text message to a normalized 10-digit phone number
type SMSGateway interface {
	// Send returns the gateway's delivery identifier
	Send(ctx context.Context, phone, message string) (string, error)
}

// NewSMSGateway returns the HTTP gateway when an API key is configured, otherwise the demo gateway
func NewSMSGateway(cfg *config.Config) SMSGateway {
	if cfg.SMSAPIKey == "" {
		utils.GetLogger().Warn("SMS_API_KEY not set, SMS messages will only be logged")
		return NewDemoSMSGateway()
	}
	return NewHTTPSMSGateway(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSenderID, cfg.SMSTimeout)
}

// HTTPSMSGateway sends messages through a Fast2SMS style bulk HTTP API
type HTTPSMSGateway struct {
	baseURL    string
	apiKey     string
	senderID   string
	httpClient *http.Client
}

// NewHTTPSMSGateway creates a gateway posting to baseURL
func NewHTTPSMSGateway(baseURL, apiKey, senderID string, timeout time.Duration) *HTTPSMSGateway {
	return &HTTPSMSGateway{
		baseURL:  baseURL,
		apiKey:   apiKey,
		senderID: senderID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type smsRequest struct {
	Authorization string `json:"authorization"`
	SenderID      string `json:"sender_id"`
	Message       string `json:"message"`
	Numbers       string `json:"numbers"`
	Route         string `json:"route"`
}

type smsResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id"`
	Message   json.RawMessage `json:"message"`
}

// Send posts the message and returns the provider request id
func (g *HTTPSMSGateway) Send(ctx context.Context, phone, message string) (string, error) {
	payload, err := json.Marshal(smsRequest{
		Authorization: g.apiKey,
		SenderID:      g.senderID,
		Message:       message,
		Numbers:       phone,
		Route:         "v3",
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("SMS gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var out smsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode SMS gateway response: %w", err)
	}
	if !out.Return {
		return "", fmt.Errorf("SMS sending failed: %s", string(out.Message))
	}

	return out.RequestID, nil
}

// DemoSMSGateway logs messages instead of delivering them
type DemoSMSGateway struct {
	logger *zap.Logger
}

// NewDemoSMSGateway creates a gateway that only logs
func NewDemoSMSGateway() *DemoSMSGateway {
	return &DemoSMSGateway{logger: utils.GetLogger()}
}

// Send logs the message and returns a synthetic delivery id
func (g *DemoSMSGateway) Send(ctx context.Context, phone, message string) (string, error) {
	g.logger.Info("SMS sent (demo mode)", zap.String("phone", phone), zap.String("message", message))
	return fmt.Sprintf("demo_%d", time.Now().UnixMilli()), nil
}
