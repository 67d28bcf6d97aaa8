package services

import (
	"sort"
	"testing"

	"github.com/mindloop/learncoach-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestResolveProviderUnknown(t *testing.T) {
	c := NewLLMClient(testLogger(t))
	if _, err := c.ResolveProvider("not-a-provider"); err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

func TestResolveProviderRequiresAPIKey(t *testing.T) {
	c := NewLLMClient(testLogger(t))

	t.Setenv("GROQ_API_KEY", "")
	if _, err := c.ResolveProvider("groq"); err == nil {
		t.Fatal("expected error for unconfigured provider, got nil")
	}

	t.Setenv("GROQ_API_KEY", "test-key")
	cfg, err := c.ResolveProvider("groq")
	if err != nil {
		t.Fatalf("ResolveProvider: %v", err)
	}
	if cfg.DefaultModel != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected default model: %s", cfg.DefaultModel)
	}
}

func TestResolveProviderNormalizesName(t *testing.T) {
	c := NewLLMClient(testLogger(t))
	t.Setenv("DEEPSEEK_API_KEY", "test-key")
	cfg, err := c.ResolveProvider("  DeepSeek ")
	if err != nil {
		t.Fatalf("ResolveProvider: %v", err)
	}
	if cfg.Name != "deepseek" {
		t.Fatalf("expected deepseek, got %s", cfg.Name)
	}
}

func TestAvailableProvidersSortedAndFlagged(t *testing.T) {
	c := NewLLMClient(testLogger(t))
	t.Setenv("ZHIPU_API_KEY", "test-key")
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("SILICONFLOW_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")

	providers := c.AvailableProviders()
	if len(providers) != len(providerRegistry) {
		t.Fatalf("expected %d providers, got %d", len(providerRegistry), len(providers))
	}
	if !sort.SliceIsSorted(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name }) {
		t.Fatal("providers not sorted by name")
	}
	for _, p := range providers {
		want := p.Name == "zhipu"
		if p.Configured != want {
			t.Fatalf("provider %s configured=%v, want %v", p.Name, p.Configured, want)
		}
	}
}

func TestIsRetryableHTTP(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   bool
	}{
		{"rate limited", 429, true},
		{"request timeout", 408, true},
		{"server error", 500, true},
		{"bad gateway", 502, true},
		{"bad request", 400, false},
		{"unauthorized", 401, false},
		{"not found", 404, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryableHTTP(tc.status); got != tc.want {
				t.Fatalf("isRetryableHTTP(%d) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFence(tc.in); got != tc.want {
				t.Fatalf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
