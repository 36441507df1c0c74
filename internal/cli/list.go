package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/pkg/steps"
)

var listTagsFlag string

var listCmd = &cobra.Command{
	Use:   "list [dirs...]",
	Short: "List the concrete scenarios a run would execute",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.OutOrStdout(), args, ListOptions{
			Config:   configFlag,
			Language: languageFlag,
			Tags:     listTagsFlag,
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listTagsFlag, "tags", "", "Tag expression selecting scenarios")
	rootCmd.AddCommand(listCmd)
}

// ListOptions carries the flag values of the list command.
type ListOptions struct {
	Config   string
	Language string
	Tags     string
}

// RunList prints every concrete scenario after outline expansion and tag
// filtering, one per line. Outline rows list individually under their
// expanded names.
func RunList(w io.Writer, dirs []string, opts ListOptions) error {
	s, err := resolve(opts.Config, dirs, opts.Tags, opts.Language)
	if err != nil {
		return err
	}

	plan, loadErrs, err := buildPlan(s, steps.NewRegistry().Seal(), false, nil)
	if err != nil {
		return err
	}

	for _, unit := range plan.Units {
		if unit.Scenario == nil {
			fmt.Fprintln(w, faintStyle.Render(unit.URI)+"  "+unit.Name+"  "+failStyle.Render(unit.Err.Error()))
			continue
		}
		location := fmt.Sprintf("%s:%d", unit.URI, unit.Scenario.Source.Location.Line)
		scenarioLine(w, location, unit.Name)
	}
	for _, loadErr := range loadErrs {
		loadErrorLine(w, loadErr)
	}

	return errors.Join(loadErrs...)
}
