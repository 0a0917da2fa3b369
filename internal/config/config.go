package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig is the top-level sigvec.yaml configuration for a host
// process: which module to load, which declaration to treat as the
// entry point, and the signature to resolve it at.
//
// Grounded on internal/ext/config.go's Config/Dep shape: a yaml-tagged
// struct with doc comments on every field, loaded by a single
// package-level Load function.
type RuntimeConfig struct {
	// Module is the path to the source module to compile.
	Module string `yaml:"module"`

	// Entry is the declaration BuildCFG roots the package at. Defaults
	// to EntryFuncName.
	Entry string `yaml:"entry,omitempty"`

	// ParamShapes lists, in order, whether each of Entry's parameters is
	// a vector ("vector") or a scalar ("scalar"); the result is always
	// assumed scalar unless ResultShape says otherwise. This is how a
	// host picks a concrete Function signature to resolve Entry at,
	// since sigvec has no surface-level type annotations.
	ParamShapes []string `yaml:"params,omitempty"`

	// ResultShape is "scalar" or "vector"; defaults to "vector".
	ResultShape string `yaml:"result,omitempty"`

	// Trace enables per-instruction VM step logging.
	Trace bool `yaml:"trace,omitempty"`
}

// Load reads and parses a RuntimeConfig from path, filling in defaults
// for Entry and ResultShape when the file leaves them blank.
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg RuntimeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.Entry == "" {
		cfg.Entry = EntryFuncName
	}
	if cfg.ResultShape == "" {
		cfg.ResultShape = "vector"
	}
	return &cfg, nil
}
