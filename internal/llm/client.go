package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/teemow/mailwright/internal/instrumentation"
	"github.com/teemow/mailwright/internal/logging"
)

// ErrEmptyResponse is returned when the API answers without any choices.
var ErrEmptyResponse = errors.New("no response from model")

// Client issues chat completions for the writing and inbox operations.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries uint
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff

	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithMetrics records request counts, durations and token usage.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client from cfg. It returns ErrMissingAPIKey when
// cfg.APIKey is empty.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	c := &Client{
		api:        openai.NewClientWithConfig(apiConfig),
		model:      model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the chat model used for every request.
func (c *Client) Model() string {
	return c.model
}

// request is a single-turn chat completion.
type request struct {
	operation   string
	system      string
	prompt      string
	maxTokens   int
	temperature float32
}

// complete sends req and returns the trimmed content of the first choice.
func (c *Client) complete(ctx context.Context, req request) (string, error) {
	ctx, span := instrumentation.StartLLMSpan(ctx, req.operation, c.model)
	start := time.Now()

	content, err := c.completeWithRetry(ctx, req)

	c.metrics.RecordLLMRequest(ctx, req.operation, c.model, instrumentation.Status(err), time.Since(start))
	instrumentation.EndSpan(span, err)
	if err != nil {
		c.logger.Warn("chat completion failed",
			logging.Operation(req.operation), logging.Model(c.model), logging.Err(err))
		return "", fmt.Errorf("%s: %w", req.operation, err)
	}
	c.logger.Debug("chat completion",
		logging.Operation(req.operation), logging.Model(c.model),
		slog.Duration(logging.KeyDuration, time.Since(start)))
	return content, nil
}

func (c *Client) completeWithRetry(ctx context.Context, req request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.system},
			{Role: openai.ChatMessageRoleUser, Content: req.prompt},
		},
		MaxTokens:   req.maxTokens,
		Temperature: req.temperature,
	}

	attempt := 0
	operation := func() (openai.ChatCompletionResponse, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return openai.ChatCompletionResponse{}, backoff.Permanent(err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.api.CreateChatCompletion(attemptCtx, chatReq)
		if err != nil {
			if !retryable(ctx, err) {
				return resp, backoff.Permanent(err)
			}
			c.logger.Debug("retrying chat completion",
				logging.Operation(req.operation), slog.Int("attempt", attempt), logging.Err(err))
			return resp, err
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxRetries+1),
	)
	if err != nil {
		return "", err
	}

	c.metrics.RecordLLMTokens(ctx, req.operation, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures are; other client errors and
// cancellation of the caller's context are not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0
}
