package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fhilgers/rangeplan/internal/cli/output"
	"github.com/fhilgers/rangeplan/internal/config"
	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// fs is the filesystem commands operate on. Tests swap it for a memory fs.
var fs = afero.NewOsFs()

// loadConfig reads the config file and environment, then applies any flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("ignore-magic") {
		cfg.IgnoreMagic, _ = flags.GetBool("ignore-magic")
	}
	if f := flags.Lookup("mode"); f != nil && f.Changed {
		cfg.Mode = f.Value.String()
	}
	if f := flags.Lookup("expected-skip"); f != nil && f.Changed {
		cfg.ExpectedSkip, _ = flags.GetInt64("expected-skip")
	}
	if f := flags.Lookup("workers"); f != nil && f.Changed {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	for name, dst := range map[string]*int64{"from": &cfg.Sweep.From, "to": &cfg.Sweep.To} {
		if f := flags.Lookup(name); f != nil && f.Changed {
			v, err := parseInt(f.Value.String())
			if err != nil {
				return cfg, fmt.Errorf("invalid --%s: %w", name, err)
			}
			*dst = v
		}
	}

	return cfg, cfg.Valid()
}

func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	s, _ := cmd.Flags().GetString("output")

	format, err := output.ParseFormat(s)
	if err != nil {
		return nil, err
	}

	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}

// parseInt accepts decimal and 0x-prefixed hexadecimal integers.
func parseInt(s string) (int64, error) {
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseInt(hex, 16, 64)
	}

	return strconv.ParseInt(s, 10, 64)
}

// readBlock reads a file that must hold exactly one 64-byte block.
func readBlock(path string) ([]byte, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	if len(b) != constants.BlockSize {
		return nil, fmt.Errorf("%s must be %d bytes, got %d", path, constants.BlockSize, len(b))
	}

	return b, nil
}

func printErr(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
