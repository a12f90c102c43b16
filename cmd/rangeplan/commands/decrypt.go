package commands

import (
	"errors"
	"fmt"

	"github.com/fhilgers/rangeplan/pkg/recovery"
	"github.com/spf13/cobra"
)

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt <file> <keyblock>",
		Short: "Undo the keystream on a file's encrypted ranges",
		Long: `Decrypt a file by XORing the recovered keyblock onto the ranges the
encryptor covers for its length.

A magic must be configured (RANGEPLAN_MAGIC, RANGEPLAN_MAGIC_EXT). The
footer is copied to <file>.kbckp, truncated off, and the encryptor's
extension is removed afterwards. --ignore-magic decrypts the whole file
length as is.

Examples:
  # See what would be touched
  rangeplan decrypt --dry data.vmdk.abcdefghi nullblock.bin

  # Resume at a given offset
  rangeplan decrypt --start-at 0x1000000 data.vmdk.abcdefghi nullblock.bin`,
		Args: cobra.ExactArgs(2),
		RunE: runDecrypt,
	}

	cmd.Flags().Bool("dry", false, "Do not write anything")
	cmd.Flags().String("assume-size", "0", "Plan for this length instead of the detected one")
	cmd.Flags().String("start-at", "0", "Skip ranges starting before this offset")

	return cmd
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	keyblock, err := readBlock(args[1])
	if err != nil {
		return err
	}

	dry, _ := cmd.Flags().GetBool("dry")
	assume, _ := cmd.Flags().GetString("assume-size")
	startAt, _ := cmd.Flags().GetString("start-at")

	opts := recovery.DecryptOptions{DryRun: dry}
	if opts.AssumeSize, err = parseInt(assume); err != nil {
		return fmt.Errorf("invalid --assume-size: %w", err)
	}
	if opts.StartAt, err = parseInt(startAt); err != nil {
		return fmt.Errorf("invalid --start-at: %w", err)
	}

	if !cfg.HasMagic() && !cfg.IgnoreMagic {
		return errors.New("no magic configured: set RANGEPLAN_MAGIC and RANGEPLAN_MAGIC_EXT or pass --ignore-magic")
	}

	s, err := recovery.New(cfg, fs, cfg.Logger())
	if err != nil {
		return err
	}

	report, err := s.Decrypt(args[0], keyblock, opts)
	if err != nil {
		return err
	}

	return printer.Print(report)
}
