// Package llm - необязательное объяснение сбоев запуска через OpenAI.
// Запросы проходят через rate limiter, в промпт попадают только
// уже замаскированные данные.
package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type Client struct {
	client      *openai.Client
	model       string
	log         *zap.Logger
	rateLimiter *RateLimiter
}

func NewClient(apiKey, model, baseURL string, log *zap.Logger) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewClientWithConfig(cfg, model, log, 60, 90000)
}

func NewClientWithConfig(cfg openai.ClientConfig, model string, log *zap.Logger, requestsPerMinute, tokensPerHour int) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		log:         log,
		rateLimiter: NewRateLimiter(requestsPerMinute, tokensPerHour),
	}
}

// createChatCompletionWithRateLimit выполняет запрос с проверкой rate limit
func (c *Client) createChatCompletionWithRateLimit(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := c.rateLimiter.AllowRequest(ctx); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	// Грубая оценка: ~4 символа на токен
	estimatedTokens := 0
	for _, msg := range req.Messages {
		estimatedTokens += len(msg.Content) / 4
	}
	estimatedTokens += req.MaxTokens

	if err := c.rateLimiter.AllowTokens(ctx, estimatedTokens); err != nil {
		return openai.ChatCompletionResponse{}, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return resp, err
	}

	if resp.Usage.TotalTokens > estimatedTokens {
		c.rateLimiter.ConsumeTokens(resp.Usage.TotalTokens - estimatedTokens)
	}

	requestsLeft, tokensLeft := c.rateLimiter.Stats()
	c.log.Debug("Запрос к LLM выполнен",
		zap.String("model", c.model),
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Int("requests_left", requestsLeft),
		zap.Int("tokens_left", tokensLeft))

	return resp, nil
}
