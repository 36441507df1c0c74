package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/denizgursoy/tursu/internal/history"
	"github.com/denizgursoy/tursu/internal/stepscan"
	"github.com/denizgursoy/tursu/pkg/events"
	"github.com/denizgursoy/tursu/pkg/steps"
	"github.com/denizgursoy/tursu/pkg/suite"
)

var (
	checkTagsFlag       string
	checkStepsFlag      string
	checkStrictFlag     bool
	checkLastFailedFlag bool
)

var checkCmd = &cobra.Command{
	Use:   "check [dirs...]",
	Short: "Check features against scanned step definitions",
	Long: `Check parses the feature files under the given directories, scans Go
source for @tursu step definitions and reports every scenario whose steps
are undefined, ambiguous or broken, without executing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCheck(cmd.OutOrStdout(), args, CheckOptions{
			Config:     configFlag,
			Language:   languageFlag,
			Tags:       checkTagsFlag,
			StepsDir:   checkStepsFlag,
			Strict:     checkStrictFlag,
			LastFailed: checkLastFailedFlag,
		})
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkTagsFlag, "tags", "", "Tag expression selecting scenarios")
	checkCmd.Flags().StringVar(&checkStepsFlag, "steps", ".", "Directory scanned for step definitions")
	checkCmd.Flags().BoolVar(&checkStrictFlag, "strict", false, "Fail on undefined steps")
	checkCmd.Flags().BoolVar(&checkLastFailedFlag, "last-failed", false, "Only check scenarios that failed in the previous run")
	rootCmd.AddCommand(checkCmd)
}

// CheckOptions carries the flag values of the check command.
type CheckOptions struct {
	Config     string
	Language   string
	Tags       string
	StepsDir   string
	Strict     bool
	LastFailed bool
}

// RunCheck statically checks the feature suite and records the outcome in
// the history database. It returns an error when any scenario is ambiguous
// or broken, any file failed to load, or, under strict checking, any step
// is undefined.
func RunCheck(w io.Writer, dirs []string, opts CheckOptions) error {
	s, err := resolve(opts.Config, dirs, opts.Tags, opts.Language)
	if err != nil {
		return err
	}

	scan, err := stepscan.Scan(opts.StepsDir)
	if err != nil {
		return err
	}
	registry, err := scan.Registry()
	if err != nil {
		return err
	}

	strict := opts.Strict || s.cfg.Check.StrictUndefined
	plan, loadErrs, err := buildPlan(s, registry, strict, events.NewSlogSink(nil))
	if err != nil {
		return err
	}

	store, err := history.Open(s.cfg.Check.History)
	if err != nil {
		return err
	}
	defer store.Close()

	units := plan.Units
	if opts.LastFailed {
		keys, err := store.LastFailed()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			units = filterByKeys(units, keys)
			fmt.Fprintf(w, "replaying %d previously failing scenarios\n", len(units))
		}
	}

	results := make([]history.Result, 0, len(units))
	counts := make(map[string]int)
	for _, unit := range units {
		status, detail := classify(unit)
		counts[status]++
		results = append(results, history.Result{
			Key:    history.Key{URI: unit.URI, Scenario: unit.Name, Row: unit.Row()},
			Status: status,
			Detail: detail,
		})
		if status != history.StatusOK {
			problemLine(w, status, unit.URI, unit.Name, detail)
		}
	}
	for _, loadErr := range loadErrs {
		loadErrorLine(w, loadErr)
	}

	if _, err := store.Record(s.tags, results); err != nil {
		return err
	}

	summaryLine(w, len(units), counts[history.StatusOK], counts[history.StatusUndefined],
		counts[history.StatusAmbiguous], counts[history.StatusBroken], len(loadErrs))

	problems := counts[history.StatusAmbiguous] + counts[history.StatusBroken] + len(loadErrs)
	if strict {
		problems += counts[history.StatusUndefined]
	}
	if problems > 0 {
		return fmt.Errorf("%d problems found", problems)
	}
	return nil
}

func classify(unit *suite.Unit) (status, detail string) {
	if unit.Err == nil {
		return history.StatusOK, ""
	}

	var undefined *steps.UndefinedStepError
	var ambiguous *steps.AmbiguousStepError
	switch {
	case errors.As(unit.Err, &undefined):
		return history.StatusUndefined, unit.Err.Error()
	case errors.As(unit.Err, &ambiguous):
		return history.StatusAmbiguous, unit.Err.Error()
	default:
		return history.StatusBroken, unit.Err.Error()
	}
}

func filterByKeys(units []*suite.Unit, keys []history.Key) []*suite.Unit {
	wanted := make(map[history.Key]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	var out []*suite.Unit
	for _, unit := range units {
		if wanted[history.Key{URI: unit.URI, Scenario: unit.Name, Row: unit.Row()}] {
			out = append(out, unit)
		}
	}
	return out
}
