package commands

import (
	"fmt"
	"strconv"

	"github.com/fhilgers/rangeplan/internal/cli/output"
	"github.com/fhilgers/rangeplan/pkg/recovery"
	"github.com/spf13/cobra"
)

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <file> <block>",
		Short: "Find a 64-byte block at the planned offsets of a file",
		Long: `Find the planned offsets of a file whose block equals the given one.

The first occurrence is a good place to start a decryption, e.g.:
  rangeplan find --find-first data.vmdk block.bin`,
		Args: cobra.ExactArgs(2),
		RunE: runFind,
	}

	cmd.Flags().String("start-at", "0", "Only look at offsets after this one")
	cmd.Flags().String("end-at", "-1", "Only look at offsets before this one (-1: end of file)")
	cmd.Flags().Bool("find-first", false, "Stop at the first match")

	return cmd
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	needle, err := readBlock(args[1])
	if err != nil {
		return err
	}

	var opts recovery.FindOptions
	opts.FindFirst, _ = cmd.Flags().GetBool("find-first")

	startAt, _ := cmd.Flags().GetString("start-at")
	if opts.StartAt, err = parseInt(startAt); err != nil {
		return fmt.Errorf("invalid --start-at: %w", err)
	}

	endAt, _ := cmd.Flags().GetString("end-at")
	if opts.EndAt, err = parseInt(endAt); err != nil {
		return fmt.Errorf("invalid --end-at: %w", err)
	}

	s, err := recovery.New(cfg, fs, cfg.Logger())
	if err != nil {
		return err
	}

	matches, err := s.Find(args[0], needle, opts)
	if err != nil {
		return err
	}

	if printer.Format() != output.FormatTable {
		return printer.Print(map[string][]int64{"offsets": matches})
	}

	table := output.NewTableData("offset")
	for _, m := range matches {
		table.AddRow(strconv.FormatInt(m, 10))
	}

	return printer.Print(table)
}
