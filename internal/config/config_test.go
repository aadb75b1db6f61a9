package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Room.RebalanceInterval != time.Minute {
		t.Errorf("RebalanceInterval = %v, want 1m", cfg.Room.RebalanceInterval)
	}
	if cfg.Room.PendingTTL != time.Hour {
		t.Errorf("PendingTTL = %v, want 1h", cfg.Room.PendingTTL)
	}
	if cfg.Transcription.StreamingLimit != 290*time.Second {
		t.Errorf("StreamingLimit = %v, want 290s", cfg.Transcription.StreamingLimit)
	}
	if cfg.Transcription.Provider != "none" {
		t.Errorf("Provider = %q, want none", cfg.Transcription.Provider)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	yaml := "port: 9090\nroom:\n  attention_interval: 5s\ntranscription:\n  provider: aws\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MODERATOR_ROOM_PENDING_TTL", "30m")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Room.AttentionInterval != 5*time.Second {
		t.Errorf("AttentionInterval = %v, want 5s", cfg.Room.AttentionInterval)
	}
	if cfg.Room.PendingTTL != 30*time.Minute {
		t.Errorf("PendingTTL = %v, want 30m from env", cfg.Room.PendingTTL)
	}
	if cfg.Transcription.Provider != "aws" {
		t.Errorf("Provider = %q, want aws", cfg.Transcription.Provider)
	}
}
