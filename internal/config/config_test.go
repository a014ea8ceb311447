package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvInt64(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int64
		expected int64
	}{
		{"valid", "10485760", 0, 10485760},
		{"invalid falls back", "ten megabytes", 42, 42},
		{"missing falls back", "", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_INT64"
			if tt.value != "" {
				if err := os.Setenv(key, tt.value); err != nil {
					t.Fatal(err)
				}
				defer func() { _ = os.Unsetenv(key) }()
			}
			if got := getenvInt64(key, tt.def); got != tt.expected {
				t.Errorf("getenvInt64() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	key := "TEST_DURATION"
	if err := os.Setenv(key, "750ms"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Unsetenv(key) }()

	if got := mustDuration(key, time.Second); got != 750*time.Millisecond {
		t.Errorf("mustDuration() = %v, want 750ms", got)
	}
	if got := mustDuration("TEST_DURATION_MISSING", time.Second); got != time.Second {
		t.Errorf("mustDuration() fallback = %v, want 1s", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected []string
	}{
		{"empty", "", nil},
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"spaces and quotes", ` "a" , 'b', c `, []string{"a", "b", "c"}},
		{"empty segments dropped", "a,,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestLoadWarnAboveQuotaPanics(t *testing.T) {
	envs := map[string]string{
		"TABDECK_REDIS_ADDR":  "localhost:6379",
		"TABDECK_QUOTA_BYTES": "100",
		"TABDECK_WARN_BYTES":  "200",
	}
	for k, v := range envs {
		if err := os.Setenv(k, v); err != nil {
			t.Fatal(err)
		}
	}
	defer func() {
		for k := range envs {
			_ = os.Unsetenv(k)
		}
	}()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Load() with warn > quota should panic")
		}
	}()
	Load()
}

func TestLoadDefaults(t *testing.T) {
	if err := os.Setenv("TABDECK_REDIS_ADDR", "localhost:6379"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Unsetenv("TABDECK_REDIS_ADDR") }()

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 500ms", cfg.DebounceInterval)
	}
	if cfg.QuotaBytes != 10*1024*1024 {
		t.Errorf("QuotaBytes = %d, want 10 MiB", cfg.QuotaBytes)
	}
	if cfg.WarnBytes != 4*1024*1024 {
		t.Errorf("WarnBytes = %d, want 4 MiB", cfg.WarnBytes)
	}
	if cfg.UsageCheckInterval != 6*time.Hour {
		t.Errorf("UsageCheckInterval = %v, want 6h", cfg.UsageCheckInterval)
	}
	if cfg.DocumentKey != "tabdeck:document" {
		t.Errorf("DocumentKey = %q", cfg.DocumentKey)
	}
}
