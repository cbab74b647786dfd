// ABOUTME: OpenAI-compatible client for embeddings and chat completions
// ABOUTME: Batches embedding requests concurrently with rate limiting and retry
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/harper/ragdoc/internal/models"
	"github.com/harper/ragdoc/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	// Dimensions is sent to models that can shorten their output; 0 leaves the model default
	Dimensions  int
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	MaxTokens   int
	Temperature float64
	BatchSize   int
	Concurrency int
	// RateLimit is in requests per second; 0 disables throttling
	RateLimit float64
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
		MaxTokens:      300,
		BatchSize:      64,
		Concurrency:    4,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic. It satisfies
// storage.Embedder and core.Generator.
type OpenAIClient struct {
	client  *openai.Client
	cfg     ClientConfig
	limiter *rate.Limiter
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", models.ErrInvalidConfiguration)
	}

	cfg := *config
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 64
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout + 5*time.Second}

	c := &OpenAIClient{
		client: openai.NewClientWithConfig(apiCfg),
		cfg:    cfg,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c, nil
}

// Embed returns one vector per text in input order. Inputs are split into
// batches that are sent concurrently.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	if len(texts) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(texts))
		g.Go(func() error {
			vectors, err := c.embedBatch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("batch %d-%d: %w", start, end, err)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OpenAIClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	}
	if c.cfg.Dimensions > 0 && strings.HasPrefix(c.cfg.EmbeddingModel, "text-embedding-3") {
		req.Dimensions = c.cfg.Dimensions
	}

	var vectors [][]float32
	err := util.Retry(ctx, c.cfg.MaxRetries+1, c.cfg.RetryDelay, func(ctx context.Context) error {
		if err := c.wait(ctx); err != nil {
			return util.Permanent(err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.client.CreateEmbeddings(reqCtx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		vectors = make([][]float32, len(texts))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
				return fmt.Errorf("embedding response has bad index %d", d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// Generate sends one system and one user message and returns the reply text
func (c *OpenAIClient) Generate(ctx context.Context, system, user string) (string, error) {
	temperature := float32(c.cfg.Temperature)
	if temperature == 0 {
		// the request field is omitempty, so an exact zero would fall back to the server default
		temperature = math.SmallestNonzeroFloat32
	}

	req := openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Temperature: temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var reply string
	err := util.Retry(ctx, c.cfg.MaxRetries+1, c.cfg.RetryDelay, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(reqCtx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrGenerationFailure, err)
	}

	log.Debug("completion received", "model", c.cfg.ChatModel, "chars", len(reply))
	return reply, nil
}

func (c *OpenAIClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// classify marks client errors other than rate limiting as not worth retrying
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		if code >= 400 && code < 500 && code != http.StatusTooManyRequests && code != http.StatusRequestTimeout {
			return util.Permanent(err)
		}
	}
	return err
}
