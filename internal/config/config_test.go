package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Toolchain != "clang" {
		t.Fatalf("expected default toolchain clang, got %q", cfg.Toolchain)
	}
}

func TestLoadMergesOverPresentFile(t *testing.T) {
	dir := t.TempDir()
	content := "toolchain: gcc\noutput_dir: build\n"
	if err := os.WriteFile(filepath.Join(dir, ".verbac.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Toolchain != "gcc" {
		t.Fatalf("expected overridden toolchain gcc, got %q", cfg.Toolchain)
	}
	if cfg.OutputDir != "build" {
		t.Fatalf("expected output_dir build, got %q", cfg.OutputDir)
	}
}
