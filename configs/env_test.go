package configs

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBPort != "3306" {
		t.Errorf("Expected default DB port 3306, got %q", cfg.DBPort)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("Expected default upload dir 'uploads', got %q", cfg.UploadDir)
	}
	if cfg.FailureThreshold != 0.5 {
		t.Errorf("Expected default failure threshold 0.5, got %v", cfg.FailureThreshold)
	}
	if cfg.MaxUploadSize != 10*1024*1024 {
		t.Errorf("Expected default max upload size 10MiB, got %d", cfg.MaxUploadSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_SSL", "true")
	t.Setenv("FAILURE_THRESHOLD", "0.25")
	t.Setenv("LIST_LIMIT", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if !cfg.DBSSL {
		t.Error("Expected DB_SSL to be true")
	}
	if cfg.FailureThreshold != 0.25 {
		t.Errorf("Expected failure threshold 0.25, got %v", cfg.FailureThreshold)
	}
	if cfg.ListLimit != 10 {
		t.Errorf("Expected list limit 10, got %d", cfg.ListLimit)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_FLOAT", "1.5")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_INT", "not-a-number")

	if got := getEnv("TEST_STR", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv = %q, want fallback", got)
	}
	if got := getEnvInt("TEST_INT", 0); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}
	if got := getEnvInt("TEST_BAD_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want fallback 7", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 0); got != 1.5 {
		t.Errorf("getEnvFloat = %v, want 1.5", got)
	}
	if got := getEnvBool("TEST_BOOL", false); !got {
		t.Error("getEnvBool = false, want true")
	}
}

func TestGetSecretFromEnv(t *testing.T) {
	t.Setenv("TEST_SECRET", "s3cret")

	value, err := GetSecret("TEST_SECRET")
	if err != nil {
		t.Fatalf("GetSecret error = %v", err)
	}
	if value != "s3cret" {
		t.Errorf("GetSecret = %q, want s3cret", value)
	}

	if _, err := GetSecret("TEST_SECRET_MISSING"); err == nil {
		t.Error("GetSecret expected error for missing secret")
	}
}
