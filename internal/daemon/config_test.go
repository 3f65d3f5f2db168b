package daemon

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 3000 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 3000)
	}
	if cfg.Engine.ExecutionDelay != "100ms" {
		t.Errorf("Engine.ExecutionDelay = %q, want %q", cfg.Engine.ExecutionDelay, "100ms")
	}
	if !cfg.Storage.Persist {
		t.Error("Storage.Persist = false, want true by default")
	}
	if cfg.LLM.Model != "mistral-small-latest" {
		t.Errorf("LLM.Model = %q, unexpected", cfg.LLM.Model)
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	t.Setenv("MMSS_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.API.Port != 3000 {
		t.Errorf("API.Port = %d, want default 3000", cfg.API.Port)
	}
}

func TestSaveLoadConfig_Roundtrip(t *testing.T) {
	t.Setenv("MMSS_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.Port = 8080
	cfg.Storage.Persist = false
	cfg.Engine.ExecutionDelay = "25ms"

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", loaded.API.Port)
	}
	if loaded.Storage.Persist {
		t.Error("Storage.Persist = true, want false after roundtrip")
	}
	if loaded.Engine.ExecutionDelay != "25ms" {
		t.Errorf("Engine.ExecutionDelay = %q, want 25ms", loaded.Engine.ExecutionDelay)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"100ms", 100 * time.Millisecond},
		{"2s", 2 * time.Second},
		{"", time.Second},        // fallback
		{"garbage", time.Second}, // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseDuration(tt.input, time.Second)
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
