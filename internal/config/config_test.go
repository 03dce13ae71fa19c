package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("WORKER_POLL_INTERVAL", "500ms"); err != nil {
		t.Fatalf("Failed to set WORKER_POLL_INTERVAL: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("WORKER_POLL_INTERVAL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.Worker.PollInterval != 500*time.Millisecond {
		t.Errorf("Worker.PollInterval = %v, want %v", cfg.Worker.PollInterval, 500*time.Millisecond)
	}
}

func TestWorkerDefaults(t *testing.T) {
	for _, key := range []string{"WORKER_POLL_INTERVAL", "WORKER_BATCH_SIZE", "WORKER_STALE_AFTER", "WORKER_MAX_ATTEMPTS"} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset %s: %v", key, err)
		}
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Worker.PollInterval != 2*time.Second {
		t.Errorf("Worker.PollInterval = %v, want 2s", cfg.Worker.PollInterval)
	}
	if cfg.Worker.BatchSize != 5 {
		t.Errorf("Worker.BatchSize = %v, want 5", cfg.Worker.BatchSize)
	}
	if cfg.Worker.StaleAfter != 10*time.Minute {
		t.Errorf("Worker.StaleAfter = %v, want 10m", cfg.Worker.StaleAfter)
	}
	if cfg.Worker.MaxAttempts != 8 {
		t.Errorf("Worker.MaxAttempts = %v, want 8", cfg.Worker.MaxAttempts)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_GET_ENV_SET",
			defaultValue: "default",
			envValue:     "fromenv",
			want:         "fromenv",
		},
		{
			name:         "returns default when unset",
			key:          "TEST_GET_ENV_UNSET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set %s: %v", tt.key, err)
				}
				defer func() { _ = os.Unsetenv(tt.key) }()
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	if err := os.Setenv("TEST_DURATION_BAD", "not-a-duration"); err != nil {
		t.Fatalf("Failed to set TEST_DURATION_BAD: %v", err)
	}
	defer func() { _ = os.Unsetenv("TEST_DURATION_BAD") }()

	if got := getEnvAsDuration("TEST_DURATION_BAD", 7*time.Second); got != 7*time.Second {
		t.Errorf("getEnvAsDuration() = %v, want fallback 7s", got)
	}
}
