// Package config loads the optional per-project .verbac.yaml file:
// native toolchain overrides and default output locations. Its absence
// is not an error; built-in defaults apply.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds the settings .verbac.yaml may override.
type Config struct {
	// Toolchain is the native compiler invoked by `run` to turn
	// emitted IR into an executable (e.g. "clang", "gcc"). Empty means
	// the driver picks its own default.
	Toolchain string `yaml:"toolchain"`

	// ToolchainFlags are passed to Toolchain ahead of the input files.
	ToolchainFlags []string `yaml:"toolchain_flags"`

	// OutputDir is the default directory `compile` writes artifacts to
	// when `-o` is not given. Empty means alongside the source file.
	OutputDir string `yaml:"output_dir"`
}

// Default returns the built-in configuration used when no .verbac.yaml
// is present or when a present file leaves a field unset.
func Default() *Config {
	return &Config{
		Toolchain: "clang",
	}
}

// Load reads .verbac.yaml from dir, merging it over Default(). A missing
// file is not an error and returns the defaults unchanged.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := dir + string(os.PathSeparator) + ".verbac.yaml"
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
