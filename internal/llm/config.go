package llm

import (
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used for every operation unless Config.Model is set.
	DefaultModel = openai.GPT3Dot5Turbo

	DefaultTimeout           = 60 * time.Second
	DefaultMaxRetries        = 3
	DefaultRequestsPerMinute = 60
)

// ErrMissingAPIKey is returned when no API key has been configured.
var ErrMissingAPIKey = errors.New("OpenAI API key not configured")

// Config configures a Client.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a proxy or a test server.
	BaseURL string
	Model   string
	// Timeout bounds a single attempt.
	Timeout    time.Duration
	MaxRetries uint
	// RequestsPerMinute limits outgoing requests. Zero or less disables limiting.
	RequestsPerMinute int
}

// DefaultConfig returns a Config for apiKey with default model, timeout,
// retry and rate settings.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:            apiKey,
		Model:             DefaultModel,
		Timeout:           DefaultTimeout,
		MaxRetries:        DefaultMaxRetries,
		RequestsPerMinute: DefaultRequestsPerMinute,
	}
}
