// Package commands implements the rangeplan CLI.
package commands

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fhilgers/rangeplan/internal/cli/output"
	"github.com/fhilgers/rangeplan/internal/sweep"
	"github.com/fhilgers/rangeplan/pkg/planner"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the command tree with fresh flag state.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rangeplan [length]",
		Short: "Plan the byte ranges an intermittent encryptor covers",
		Long: `rangeplan computes which byte ranges of an object are encrypted,
keyed only by the object's length.

With a length argument the plan for that length is printed. Without one,
every length in the configured sweep range is planned and the first skip
step that differs from the expected value stops the process.

Examples:
  # Plan a 2 GiB object
  rangeplan 2147483648

  # Sweep the default range with 8 workers
  rangeplan --workers 8

  # Sweep a custom range and emit chunks for matching steps
  rangeplan --mode emit --from 214748365 --to 214800000`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (YAML)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().Bool("ignore-magic", false, "Do not look for the footer magic")

	rootCmd.Flags().String("mode", "", "Policy mode (validate|emit|unchecked)")
	rootCmd.Flags().Int64("expected-skip", 0, "Expected skip step")
	rootCmd.Flags().Int("workers", 0, "Sweep workers")
	rootCmd.Flags().String("from", "", "First swept length")
	rootCmd.Flags().String("to", "", "Sweep end (exclusive)")
	rootCmd.Flags().Bool("ranges", false, "Print every planned range")

	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newFindCmd())
	rootCmd.AddCommand(newMagicCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

type planReport struct {
	planner.Result `yaml:",inline"`

	Mode   string          `json:"mode" yaml:"mode"`
	Digest string          `json:"digest" yaml:"digest"`
	Count  int64           `json:"count" yaml:"count"`
	Ranges []planner.Range `json:"ranges,omitempty" yaml:"ranges,omitempty"`
}

func (r planReport) Headers() []string {
	return []string{"field", "value"}
}

func (r planReport) Rows() [][]string {
	head := "-"
	if r.Head != nil {
		head = r.Head.String()
	}

	rows := [][]string{
		{"length", fmt.Sprintf("%d (%s)", r.Length, humanize.IBytes(uint64(max(r.Length, 0))))},
		{"mode", r.Mode},
		{"bracket", r.Bracket.String()},
		{"head", head},
		{"residual", strconv.FormatInt(r.Residual, 10)},
		{"blocks", strconv.FormatInt(r.Blocks, 10)},
		{"ratio", strconv.FormatFloat(r.Ratio, 'f', -1, 64)},
		{"step", strconv.FormatInt(r.Step, 10)},
		{"single pass", strconv.FormatBool(r.SinglePass)},
		{"chunks", strconv.FormatInt(r.Chunks, 10)},
		{"ranges", strconv.FormatInt(r.Count, 10)},
		{"digest", r.Digest},
	}

	for _, rg := range r.Ranges {
		rows = append(rows, []string{"range", rg.String()})
	}

	return rows
}

type sweepReport struct {
	Run   string      `json:"run" yaml:"run"`
	From  int64       `json:"from" yaml:"from"`
	To    int64       `json:"to" yaml:"to"`
	Stats sweep.Stats `json:"stats" yaml:"stats"`
}

func (r sweepReport) Headers() []string {
	return []string{"bracket", "lengths"}
}

func (r sweepReport) Rows() [][]string {
	rows := [][]string{}
	for _, b := range []string{"tiny", "default", "large", "extreme"} {
		if n, ok := r.Stats.Brackets[b]; ok {
			rows = append(rows, []string{b, humanize.Comma(n)})
		}
	}

	return append(rows, []string{"total", humanize.Comma(r.Stats.Lengths)})
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := cfg.Logger()

	p, err := planner.New(planner.Options{
		Mode:         cfg.PlannerMode(),
		ExpectedSkip: cfg.ExpectedSkip,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		length, err := parseInt(args[0])
		if err != nil {
			return fmt.Errorf("invalid length %q: %w", args[0], err)
		}

		withRanges, _ := cmd.Flags().GetBool("ranges")

		return runPlan(p, printer, length, withRanges)
	}

	report := sweepReport{
		Run:  uuid.NewString(),
		From: cfg.Sweep.From,
		To:   cfg.Sweep.To,
	}

	log.WithFields(logrus.Fields{
		"run":     report.Run,
		"from":    report.From,
		"to":      report.To,
		"workers": cfg.Workers,
		"mode":    p.Mode(),
	}).Info("detecting outliers")

	report.Stats, err = sweep.Run(cmd.Context(), p, sweep.Options{
		From:    report.From,
		To:      report.To,
		Workers: cfg.Workers,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	log.WithField("run", report.Run).Info("sweep done")

	return printer.Print(report)
}

func runPlan(p *planner.Planner, printer *output.Printer, length int64, withRanges bool) error {
	digest := planner.NewDigest()
	sink := planner.Sink(digest)

	rec := &planner.Recorder{}
	if withRanges {
		sink = planner.Tee(digest, rec)
	}

	res, err := p.Plan(length, nil, sink)
	if err != nil {
		return err
	}

	return printer.Print(planReport{
		Result: res,
		Mode:   p.Mode().String(),
		Digest: digest.String(),
		Count:  digest.Count(),
		Ranges: rec.Ranges,
	})
}
