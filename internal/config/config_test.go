package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoad_MissingJWTSecretIsError(t *testing.T) {
	clearEnv(t, "JWT_SECRET")
	_, err := Load()
	if err == nil {
		t.Fatal("expected an error when JWT_SECRET is unset")
	}
}

func TestLoad_DefaultsAppliedWhenEnvUnset(t *testing.T) {
	clearEnv(t, "PORT", "QUEUE_CONCURRENCY_GEOCODING", "CONFIDENCE_WEIGHT_DOCUMENT")
	os.Setenv("JWT_SECRET", "test-secret")
	t.Cleanup(func() { os.Unsetenv("JWT_SECRET") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", cfg.Port)
	}
	if cfg.Queue.Geocoding != 3 {
		t.Errorf("Queue.Geocoding = %d, want default 3", cfg.Queue.Geocoding)
	}
	if cfg.Weights.Document != 0.10 {
		t.Errorf("Weights.Document = %v, want default 0.10", cfg.Weights.Document)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("PORT", "9090")
	os.Setenv("TIMEOUT_GEOCODER", "5s")
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("PORT")
		os.Unsetenv("TIMEOUT_GEOCODER")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.Timeouts.Geocoder != 5*time.Second {
		t.Errorf("Timeouts.Geocoder = %v, want 5s", cfg.Timeouts.Geocoder)
	}
}

func TestGetIntOrDefault_InvalidValueFallsBack(t *testing.T) {
	os.Setenv("TEST_INT_KEY", "not-a-number")
	t.Cleanup(func() { os.Unsetenv("TEST_INT_KEY") })

	if got := getIntOrDefault("TEST_INT_KEY", 42); got != 42 {
		t.Errorf("getIntOrDefault = %d, want fallback 42", got)
	}
}

func TestGetDurationOrDefault_InvalidValueFallsBack(t *testing.T) {
	os.Setenv("TEST_DURATION_KEY", "not-a-duration")
	t.Cleanup(func() { os.Unsetenv("TEST_DURATION_KEY") })

	if got := getDurationOrDefault("TEST_DURATION_KEY", time.Minute); got != time.Minute {
		t.Errorf("getDurationOrDefault = %v, want fallback 1m", got)
	}
}
