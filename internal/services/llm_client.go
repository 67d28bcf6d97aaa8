package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mindloop/learncoach-backend/internal/logger"
)

// ProviderConfig describes one OpenAI-compatible chat completion endpoint.
type ProviderConfig struct {
	Name         string
	BaseURL      string
	DefaultModel string
	APIKeyEnv    string
}

// providerRegistry lists the chat providers the service can route to. Every
// entry speaks the OpenAI chat completions wire format.
var providerRegistry = map[string]ProviderConfig{
	"deepseek": {
		Name:         "deepseek",
		BaseURL:      "https://api.deepseek.com",
		DefaultModel: "deepseek-chat",
		APIKeyEnv:    "DEEPSEEK_API_KEY",
	},
	"groq": {
		Name:         "groq",
		BaseURL:      "https://api.groq.com/openai/v1",
		DefaultModel: "llama-3.3-70b-versatile",
		APIKeyEnv:    "GROQ_API_KEY",
	},
	"siliconflow": {
		Name:         "siliconflow",
		BaseURL:      "https://api.siliconflow.cn/v1",
		DefaultModel: "Qwen/Qwen2.5-72B-Instruct",
		APIKeyEnv:    "SILICONFLOW_API_KEY",
	},
	"zhipu": {
		Name:         "zhipu",
		BaseURL:      "https://open.bigmodel.cn/api/paas/v4",
		DefaultModel: "glm-4-flash",
		APIKeyEnv:    "ZHIPU_API_KEY",
	},
	"qwen": {
		Name:         "qwen",
		BaseURL:      "https://dashscope.aliyuncs.com/compatible-mode/v1",
		DefaultModel: "qwen-plus",
		APIKeyEnv:    "LLM_API_KEY",
	},
}

// LLMClient is a thin chat completion client over the provider registry.
type LLMClient interface {
	ChatComplete(ctx context.Context, provider, model string, messages []ChatMessage) (string, error)
	ChatCompleteJSON(ctx context.Context, provider, model string, messages []ChatMessage, out any) error
	AvailableProviders() []ProviderInfo
	ResolveProvider(name string) (ProviderConfig, error)
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProviderInfo is the public shape returned by the providers listing.
type ProviderInfo struct {
	Name         string `json:"name"`
	DefaultModel string `json:"default_model"`
	Configured   bool   `json:"configured"`
}

type llmClient struct {
	httpClient *http.Client
	maxRetries int
	log        *logger.Logger
}

func NewLLMClient(log *logger.Logger) LLMClient {
	return &llmClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 4,
		log:        log.With("service", "LLMClient"),
	}
}

type llmHTTPError struct {
	StatusCode int
	Body       string
}

func (e *llmHTTPError) Error() string {
	return fmt.Sprintf("llm http error: status=%d body=%s", e.StatusCode, e.Body)
}

func isRetryableHTTP(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500 && status <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *llmHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	// Transport-level failures (connection reset, DNS) are worth retrying.
	var netErr interface{ Temporary() bool }
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func jitterSleep(base time.Duration) time.Duration {
	// +/- 20%
	if base <= 0 {
		return 0
	}
	j := 0.2
	delta := base.Seconds() * j
	low := base.Seconds() - delta
	high := base.Seconds() + delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(high-low)
	return time.Duration(v * float64(time.Second))
}

// ResolveProvider validates the provider name and checks its API key is set.
func (c *llmClient) ResolveProvider(name string) (ProviderConfig, error) {
	cfg, ok := providerRegistry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("Unknown provider: %s", name)
	}
	if strings.TrimSpace(os.Getenv(cfg.APIKeyEnv)) == "" {
		return ProviderConfig{}, fmt.Errorf("Provider %s is not configured (missing %s)", cfg.Name, cfg.APIKeyEnv)
	}
	return cfg, nil
}

func (c *llmClient) AvailableProviders() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(providerRegistry))
	for _, cfg := range providerRegistry {
		out = append(out, ProviderInfo{
			Name:         cfg.Name,
			DefaultModel: cfg.DefaultModel,
			Configured:   strings.TrimSpace(os.Getenv(cfg.APIKeyEnv)) != "",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *llmClient) ChatComplete(ctx context.Context, provider, model string, messages []ChatMessage) (string, error) {
	return c.complete(ctx, provider, model, messages, nil)
}

// ChatCompleteJSON asks the provider for a json_object response and decodes
// the assistant message into out.
func (c *llmClient) ChatCompleteJSON(ctx context.Context, provider, model string, messages []ChatMessage, out any) error {
	content, err := c.complete(ctx, provider, model, messages, &responseFormat{Type: "json_object"})
	if err != nil {
		return err
	}
	content = stripCodeFence(content)
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("Failed to parse model JSON: %w; text=%s", err, content)
	}
	return nil
}

func (c *llmClient) complete(ctx context.Context, provider, model string, messages []ChatMessage, format *responseFormat) (string, error) {
	cfg, err := c.ResolveProvider(provider)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(model) == "" {
		model = cfg.DefaultModel
	}
	req := chatCompletionRequest{
		Model:          model,
		Messages:       messages,
		Temperature:    0.7,
		ResponseFormat: format,
	}

	var resp chatCompletionResponse
	if err := c.do(ctx, cfg, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("Provider %s returned no choices", cfg.Name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *llmClient) doOnce(ctx context.Context, cfg ProviderConfig, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+os.Getenv(cfg.APIKeyEnv))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &llmHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *llmClient) do(ctx context.Context, cfg ProviderConfig, path string, body any, out any) error {
	// exponential backoff: 1s, 2s, 4s, 8s (cap ~10s)
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, cfg, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("Failed to decode %s response: %w; raw=%s", cfg.Name, uErr, string(raw))
			}
			return nil
		}

		if !isRetryableErr(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		// Respect Retry-After when present
		sleepFor := backoff
		if resp != nil {
			ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
			if ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}

		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitterSleep(sleepFor)

		c.log.Warn("LLM request retrying",
			"provider", cfg.Name,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

// stripCodeFence removes a leading/trailing markdown fence some providers
// wrap JSON output in despite response_format.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
