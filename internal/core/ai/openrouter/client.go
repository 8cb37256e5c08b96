package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client OpenRouter chat completions 客戶端
type Client struct {
	client *resty.Client
	model  string
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// apiError 表示 API 錯誤
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", cfg.Title)

	return &Client{
		client: client,
		model:  cfg.Model,
	}
}

// Complete 送出單一 user 訊息並回傳第一個 choice 的文字
func (c *Client) Complete(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	req := &Request{
		Model: model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", model),
		zap.Int("prompt_length", len(prompt)),
		zap.Int("max_tokens", opts.MaxTokens),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", common.NewTransformerUnavailable(fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		return "", common.NewTransformerUnavailable(fmt.Errorf("OpenRouter returned status %d: %s", resp.StatusCode(), errorMessage(resp.Body())))
	}

	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", common.NewTransformerUnavailable(fmt.Errorf("failed to decode OpenRouter envelope: %w", err))
	}

	if len(result.Choices) == 0 {
		return "", common.NewTransformerUnavailable(fmt.Errorf("no choices in OpenRouter response"))
	}

	content := result.Choices[0].Message.Content
	common.LogDebug("Received response from OpenRouter",
		zap.String("model", model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.String("finish_reason", result.Choices[0].FinishReason),
	)

	return content, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// errorMessage 盡量取出 API 錯誤訊息
func errorMessage(body []byte) string {
	var e apiError
	if err := common.ParseJSONBytes(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return common.Truncate(string(body), 200)
}
