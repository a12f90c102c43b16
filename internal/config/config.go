package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/footer"
	"github.com/fhilgers/rangeplan/pkg/planner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "RANGEPLAN"

type Sweep struct {
	From int64 `mapstructure:"from" yaml:"from"`
	To   int64 `mapstructure:"to" yaml:"to"`
}

type Config struct {
	Mode         string `mapstructure:"mode" yaml:"mode"`
	ExpectedSkip int64  `mapstructure:"expected_skip" yaml:"expected_skip"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	Magic       string `mapstructure:"magic" yaml:"magic"`
	MagicExt    string `mapstructure:"magic_ext" yaml:"magic_ext"`
	IgnoreMagic bool   `mapstructure:"ignore_magic" yaml:"ignore_magic"`

	Sweep Sweep `mapstructure:"sweep" yaml:"sweep"`
}

func New() Config {
	return Config{
		Mode:         planner.ModeValidate.String(),
		ExpectedSkip: constants.ExpectedSkipStep,
		Workers:      1,
		LogLevel:     logrus.InfoLevel.String(),
		Sweep: Sweep{
			From: constants.SweepFrom,
			To:   constants.SweepTo,
		},
	}
}

// Load reads the optional YAML file at path and RANGEPLAN_* environment
// variables on top of the defaults.
func Load(path string) (Config, error) {
	v := viper.New()

	def := New()
	v.SetDefault("mode", def.Mode)
	v.SetDefault("expected_skip", def.ExpectedSkip)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("magic", "")
	v.SetDefault("magic_ext", "")
	v.SetDefault("ignore_magic", false)
	v.SetDefault("sweep.from", def.Sweep.From)
	v.SetDefault("sweep.to", def.Sweep.To)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.Valid(); err != nil {
		return Config{}, err
	}

	return c, nil
}

func (c *Config) Valid() error {
	if _, err := planner.ParseMode(c.Mode); err != nil {
		return err
	}

	if c.ExpectedSkip <= 0 {
		return fmt.Errorf("unsupported expected skip step: %d", c.ExpectedSkip)
	}

	if c.Workers < 1 {
		return fmt.Errorf("unsupported worker count: %d, wanted at least 1", c.Workers)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Sweep.From >= c.Sweep.To {
		return fmt.Errorf("empty sweep range: [%d, %d)", c.Sweep.From, c.Sweep.To)
	}

	if !c.IgnoreMagic && (c.Magic != "" || c.MagicExt != "") {
		return footer.ValidateMagic(c.MagicBytes(), c.MagicExt)
	}

	return nil
}

// MagicBytes is the configured magic with its trailing NUL.
func (c Config) MagicBytes() []byte {
	if c.Magic == "" {
		return nil
	}

	return append([]byte(c.Magic), 0)
}

// HasMagic reports whether footer handling can run.
func (c Config) HasMagic() bool {
	return !c.IgnoreMagic && c.Magic != "" && c.MagicExt != ""
}

func (c Config) PlannerMode() planner.Mode {
	m, _ := planner.ParseMode(c.Mode)

	return m
}

func (c Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}

	return log
}
