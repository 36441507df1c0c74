// Package cli implements the tursu command line: static checking of
// feature suites against scanned step definitions, stub generation for
// undefined steps and scenario listings.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/internal/config"
	"github.com/denizgursoy/tursu/internal/loader"
	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/steps"
	"github.com/denizgursoy/tursu/pkg/suite"
)

var (
	configFlag   string
	languageFlag string
	noColorFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "tursu",
	Short: "Static checks and scaffolding for Gherkin suites",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorFlag {
			disableColor()
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default tursu.hcl when present)")
	rootCmd.PersistentFlags().StringVar(&languageFlag, "language", "", "Dialect for features without a language directive")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup is the effective run configuration after flags override the file.
type setup struct {
	cfg      *config.Config
	dirs     []string
	tags     string
	language string
}

func resolve(cfgPath string, dirs []string, tags, language string) (*setup, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	s := &setup{cfg: cfg, dirs: dirs, tags: tags, language: language}
	if len(s.dirs) == 0 {
		s.dirs = cfg.Features
	}
	if len(s.dirs) == 0 {
		s.dirs = []string{"."}
	}
	if s.tags == "" {
		s.tags = cfg.Tags
	}
	if s.language == "" {
		s.language = cfg.Language
	}
	return s, nil
}

// buildPlan loads the feature directories and materializes them against the
// registry. Load errors are file-scoped and returned alongside the plan.
func buildPlan(s *setup, registry *steps.Registry, strict bool, sink events.Sink) (*suite.Plan, []error, error) {
	var opts []loader.Option
	if s.language != "" {
		opts = append(opts, loader.WithLanguage(s.language))
	}
	result, err := loader.LoadDirs(s.dirs, opts...)
	if err != nil {
		return nil, nil, err
	}

	plan, err := suite.Materialize(result.Documents, registry, suite.Options{
		Tags:            s.tags,
		StrictUndefined: strict,
		Sink:            sink,
	})
	if err != nil {
		return nil, nil, err
	}
	return plan, result.Errors, nil
}
