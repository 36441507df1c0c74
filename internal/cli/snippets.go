package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/internal/codegen"
	"github.com/denizgursoy/tursu/internal/stepscan"
)

var snippetsStepsFlag string

var snippetsCmd = &cobra.Command{
	Use:   "snippets [dirs...]",
	Short: "Generate stub definitions for undefined steps",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSnippets(cmd.OutOrStdout(), args, SnippetsOptions{
			Config:   configFlag,
			Language: languageFlag,
			StepsDir: snippetsStepsFlag,
		})
	},
}

func init() {
	snippetsCmd.Flags().StringVar(&snippetsStepsFlag, "steps", ".", "Directory scanned for step definitions")
	rootCmd.AddCommand(snippetsCmd)
}

// SnippetsOptions carries the flag values of the snippets command.
type SnippetsOptions struct {
	Config   string
	Language string
	StepsDir string
}

// RunSnippets prints stub step functions for every step no scanned
// definition matches. Tag filtering is ignored: stubs are generated for
// the whole suite.
func RunSnippets(w io.Writer, dirs []string, opts SnippetsOptions) error {
	s, err := resolve(opts.Config, dirs, "", opts.Language)
	if err != nil {
		return err
	}
	s.tags = ""

	scan, err := stepscan.Scan(opts.StepsDir)
	if err != nil {
		return err
	}
	registry, err := scan.Registry()
	if err != nil {
		return err
	}

	plan, loadErrs, err := buildPlan(s, registry, false, nil)
	if err != nil {
		return err
	}

	if len(plan.Undefined) == 0 {
		fmt.Fprintln(w, "every step has a definition")
		return errors.Join(loadErrs...)
	}

	pkg, err := codegen.DetectPackageName(opts.StepsDir)
	if err != nil {
		pkg = ""
	}
	src, err := codegen.Snippets(pkg, plan.Undefined)
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return err
	}

	return errors.Join(loadErrs...)
}
