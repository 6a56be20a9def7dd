package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small"},
		LLM:       LLMConfig{Model: "gpt-4o-mini"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Chunking.ChunkSize != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("expected 500/50 chunking, got %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 3 {
		t.Errorf("expected top_k 3, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.FloorSec != 4 || cfg.Retry.CeilingSec != 10 {
		t.Errorf("unexpected retry defaults %+v", cfg.Retry)
	}
	if cfg.Index.Backend != "flat" || cfg.Index.Concurrency <= 0 {
		t.Errorf("unexpected index defaults %+v", cfg.Index)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
}

func TestApplyDefaults_ExplicitZeroOverlapKept(t *testing.T) {
	cfg := Config{Chunking: ChunkingConfig{ChunkSize: 200}}
	cfg.ApplyDefaults()
	if cfg.Chunking.Overlap != 0 {
		t.Errorf("explicit chunk size must keep overlap 0, got %d", cfg.Chunking.Overlap)
	}
}

func TestApplyDefaults_LLMInheritsProvider(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{APIKey: "k", BaseURL: "https://api.example.com/v1/"}}
	cfg.ApplyDefaults()
	if cfg.LLM.APIKey != "k" || cfg.LLM.BaseURL != "https://api.example.com/v1/" {
		t.Errorf("expected llm to inherit credentials, got %+v", cfg.LLM)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no embedding model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"no llm model", func(c *Config) { c.LLM.Model = "" }, "llm.model"},
		{"overlap too large", func(c *Config) { c.Chunking.Overlap = 500 }, "chunking"},
		{"retry out of order", func(c *Config) { c.Retry.FloorSec = 20 }, "retry.ceiling_sec"},
		{"bad backend", func(c *Config) { c.Index.Backend = "faiss" }, "index.backend"},
		{"bad min score", func(c *Config) { c.Retrieval.MinScore = 2 }, "retrieval.min_score"},
		{"bad budget action", func(c *Config) { c.Embedding.Budget.Action = "invalid_action" },
			`embedding.budget.action must be "warn" or "reject", got "invalid_action"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidate_ChunkingErrorIsConfiguration(t *testing.T) {
	cfg := validConfig()
	cfg.Chunking.Overlap = -1
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "sk-test")
	yml := []byte(`
http:
  port: ${DOCQA_TEST_PORT:-9090}
embedding:
  api_key: ${DOCQA_TEST_KEY}
  model: text-embedding-3-small
llm:
  model: gpt-4o-mini
cache:
  addrs: ["localhost:6379"]
`)
	cfg, err := Parse(yml)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("expected expanded api key, got %q / %q", cfg.Embedding.APIKey, cfg.LLM.APIKey)
	}
	if !cfg.Cache.Enabled() {
		t.Error("expected cache enabled")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error for missing models")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected a port in local config")
	}
}

func TestLoad_UnknownEnvReturnsError(t *testing.T) {
	_, err := Load("no-such-env")
	if err == nil || !strings.Contains(err.Error(), "failed to read config") {
		t.Fatalf("expected read error, got %v", err)
	}
}
