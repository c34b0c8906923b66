package config

import (
	"context"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "AI_PROVIDER", "OPENAI_API_KEY", "REPLY_TEMPERATURE", "REPLY_MAX_TOKENS", "REPLY_TIMEOUT_SECONDS", "STORAGE_BACKEND", "COUNTRY_CODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Reply.Temperature != 0.7 || cfg.Reply.MaxOutputTokens != 220 || cfg.Reply.Timeout != 20*time.Second {
		t.Fatalf("unexpected reply config %+v", cfg.Reply)
	}
	if cfg.AI.Provider != ProviderOpenAI || cfg.AI.Enabled() {
		t.Fatalf("expected disabled openai provider, got %+v", cfg.AI)
	}
	if cfg.Storage.Backend != StorageSQLite {
		t.Fatalf("unexpected storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Resources.CountryCode != "IN" {
		t.Fatalf("unexpected country %q", cfg.Resources.CountryCode)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"REPLY_TEMPERATURE": "warm",
		"REPLY_MAX_TOKENS":  "0",
		"STORAGE_BACKEND":   "postgres",
		"AI_PROVIDER":       "mystery",
		"PORT":              "80 80",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestNewClientWithoutKeyFails(t *testing.T) {
	cfg := AIConfig{Provider: ProviderOpenAI}
	if _, err := cfg.NewClient(context.Background()); err == nil {
		t.Fatal("expected construction error without OPENAI_API_KEY")
	}

	ark := AIConfig{Provider: ProviderArk, ArkAPIKey: "k"}
	if ark.Enabled() {
		t.Fatal("ark without model should be disabled")
	}
	if _, err := ark.NewClient(context.Background()); err == nil {
		t.Fatal("expected construction error for incomplete ark config")
	}
}

func TestNewClientOpenAI(t *testing.T) {
	cfg := AIConfig{Provider: ProviderOpenAI, OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}
	client, err := cfg.NewClient(context.Background())
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	if client.Model() != "gpt-4o-mini" || cfg.ModelName() != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", client.Model())
	}
}
