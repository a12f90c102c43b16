package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/footer"
	"github.com/spf13/cobra"
)

func newMagicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magic <file>",
		Short: "Print the footer magic and extension of an encrypted file",
		Args:  cobra.ExactArgs(1),
		RunE:  runMagic,
	}

	return cmd
}

type magicReport struct {
	Magic     string `json:"magic" yaml:"magic"`
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	Valid     bool   `json:"valid" yaml:"valid"`
}

func (r magicReport) Headers() []string {
	return []string{"magic", "extension", "valid"}
}

func (r magicReport) Rows() [][]string {
	return [][]string{{r.Magic, r.Extension, fmt.Sprint(r.Valid)}}
}

func runMagic(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	f, err := fs.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	magic, err := footer.ReadMagic(f)
	if err != nil {
		return err
	}

	report := magicReport{Magic: string(magic[:len(magic)-1])}

	if ext := filepath.Ext(args[0]); len(ext) == constants.MagicExtLen+1 {
		report.Extension = ext[1:]
	}

	report.Valid = footer.ValidateMagic(magic, report.Extension) == nil
	if !report.Valid {
		printErr("magic does not look legit: %q", magic)
	} else {
		printErr("use it with: RANGEPLAN_MAGIC=%s RANGEPLAN_MAGIC_EXT=%s", report.Magic, report.Extension)
	}

	return printer.Print(report)
}
