// Package config loads the optional tursu.hcl run configuration. A missing
// file yields the defaults; CLI flags override whatever the file says.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "tursu.hcl"

// DefaultHistoryPath is where check results are recorded.
const DefaultHistoryPath = ".tursu/history.db"

// Config is the decoded run configuration.
type Config struct {
	Features []string `hcl:"features,optional"`
	Tags     string   `hcl:"tags,optional"`
	Language string   `hcl:"language,optional"`
	Check    *Check   `hcl:"check,block"`
}

// Check configures the check command.
type Check struct {
	StrictUndefined bool   `hcl:"strict_undefined,optional"`
	History         string `hcl:"history,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Check: &Check{History: DefaultHistoryPath},
	}
}

// Load reads and decodes an HCL configuration file. A missing file at the
// default path is not an error; an explicitly named missing file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}

	cfg := &Config{}
	diags = gohcl.DecodeBody(file.Body, envContext(), cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	if cfg.Check == nil {
		cfg.Check = &Check{}
	}
	if cfg.Check.History == "" {
		cfg.Check.History = DefaultHistoryPath
	}
	return cfg, nil
}

// envContext exposes the process environment to the file as env.NAME, so
// values like tags can come from CI without editing the file.
func envContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
