package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigvec.yaml")
	if err := os.WriteFile(path, []byte("module: ./main.sv\nparams: [vector]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Entry != EntryFuncName {
		t.Errorf("Entry = %q, want %q", cfg.Entry, EntryFuncName)
	}
	if cfg.ResultShape != "vector" {
		t.Errorf("ResultShape = %q, want vector", cfg.ResultShape)
	}
	if len(cfg.ParamShapes) != 1 || cfg.ParamShapes[0] != "vector" {
		t.Errorf("ParamShapes = %v, want [vector]", cfg.ParamShapes)
	}
}

func TestLoadHonorsExplicitEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigvec.yaml")
	if err := os.WriteFile(path, []byte("module: ./main.sv\nentry: process\nresult: scalar\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Entry != "process" {
		t.Errorf("Entry = %q, want process", cfg.Entry)
	}
	if cfg.ResultShape != "scalar" {
		t.Errorf("ResultShape = %q, want scalar", cfg.ResultShape)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
