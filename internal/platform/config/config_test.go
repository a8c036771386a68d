package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetters(t *testing.T) {
	t.Setenv("ARVIEW_TEST_STR", "value")
	t.Setenv("ARVIEW_TEST_INT", "42")
	t.Setenv("ARVIEW_TEST_BAD_INT", "forty")
	t.Setenv("ARVIEW_TEST_FLOAT", "0.25")
	t.Setenv("ARVIEW_TEST_BOOL", "true")

	if got := GetEnv("ARVIEW_TEST_STR", "x"); got != "value" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("ARVIEW_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetEnv fallback = %q", got)
	}
	if got := GetEnvInt("ARVIEW_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("ARVIEW_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("GetEnvInt fallback = %d", got)
	}
	if got := GetEnvFloat("ARVIEW_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("GetEnvFloat = %v", got)
	}
	if !GetEnvBool("ARVIEW_TEST_BOOL", false) {
		t.Error("GetEnvBool = false")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	v := FromEnv()
	if v.MinRadius != 0.6 || v.MaxRadius != 6 {
		t.Errorf("Unexpected radius defaults %v..%v", v.MinRadius, v.MaxRadius)
	}
	if v.RotateSensitivity != 0.005 {
		t.Errorf("Unexpected rotate sensitivity %v", v.RotateSensitivity)
	}
	if v.PlaceOnce() {
		t.Error("Expected multiple placement by default")
	}
	if err := v.Limits().Validate(); err != nil {
		t.Errorf("Default limits invalid: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ARVIEW_PLACEMENT=ONCE\nARVIEW_MAX_RADIUS=4.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ARVIEW_PLACEMENT")
		os.Unsetenv("ARVIEW_MAX_RADIUS")
	})

	if err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	v := FromEnv()
	if !v.PlaceOnce() {
		t.Error("Expected once placement from .env")
	}
	if v.Limits().MaxRadius != 4.5 {
		t.Errorf("Expected max radius 4.5, got %v", v.Limits().MaxRadius)
	}
}
