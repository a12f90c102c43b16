// Package planner decides which byte ranges of an object an intermittent
// encryptor covers, keyed only by the object's total length.
package planner

import (
	"errors"
	"fmt"
	"os"

	"github.com/fhilgers/rangeplan/internal/blocks"
	"github.com/fhilgers/rangeplan/internal/bracket"
	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/emitter"
	"github.com/fhilgers/rangeplan/internal/ratio"
	"github.com/fhilgers/rangeplan/internal/skip"
	"github.com/sirupsen/logrus"
)

type (
	Range           = emitter.Range
	PolicyViolation = skip.PolicyViolation
)

// Mode selects what happens once a skip step has been derived.
//
// Plans follow the policy the encryptor marks with byte 0x06. Its 0x05
// variant, which applies the seed divisors to the ratio, is never taken by
// the encryptor and has no Mode.
type Mode int

const (
	// ModeValidate stops the process on a mismatching skip step and returns
	// without stepped chunks on a matching one.
	ModeValidate Mode = iota
	// ModeEmit stops the process on a mismatching skip step and emits
	// stepped chunks on a matching one.
	ModeEmit
	// ModeUnchecked never validates the skip step.
	ModeUnchecked
)

var ErrUnsupportedMode = errors.New("unsupported policy mode")

func (m Mode) String() string {
	switch m {
	case ModeValidate:
		return "validate"
	case ModeEmit:
		return "emit"
	case ModeUnchecked:
		return "unchecked"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "validate":
		return ModeValidate, nil
	case "emit":
		return ModeEmit, nil
	case "unchecked":
		return ModeUnchecked, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

type Options struct {
	Mode         Mode
	ExpectedSkip int64
	Logger       *logrus.Logger

	// Halt is called with the first policy violation. The default prints
	// the diagnostic and exits the process with status 0.
	Halt func(v *PolicyViolation)
}

// Planner is stateless between calls and safe for concurrent use.
type Planner struct {
	mode     Mode
	expected int64
	log      *logrus.Logger
	halt     func(v *PolicyViolation)
}

// Result describes the plan computed for one length.
type Result struct {
	Length     int64           `json:"length" yaml:"length"`
	Bracket    bracket.Bracket `json:"bracket" yaml:"bracket"`
	Head       *Range          `json:"head,omitempty" yaml:"head,omitempty"`
	Residual   int64           `json:"residual" yaml:"residual"`
	Blocks     int64           `json:"blocks" yaml:"blocks"`
	Ratio      float64         `json:"ratio" yaml:"ratio"`
	Transient  float64         `json:"transient,omitempty" yaml:"transient,omitempty"`
	Step       int64           `json:"step" yaml:"step"`
	SinglePass bool            `json:"singlePass" yaml:"singlePass"`
	Chunks     int64           `json:"chunks" yaml:"chunks"`
}

func New(opts Options) (*Planner, error) {
	if opts.Mode < ModeValidate || opts.Mode > ModeUnchecked {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, opts.Mode)
	}

	if opts.ExpectedSkip == 0 {
		opts.ExpectedSkip = constants.ExpectedSkipStep
	}

	if opts.ExpectedSkip < 0 {
		return nil, fmt.Errorf("expected skip step must be positive: %d", opts.ExpectedSkip)
	}

	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	p := &Planner{
		mode:     opts.Mode,
		expected: opts.ExpectedSkip,
		log:      opts.Logger,
		halt:     opts.Halt,
	}

	if p.halt == nil {
		p.halt = p.exit
	}

	return p, nil
}

func (p *Planner) Mode() Mode {
	return p.mode
}

// Plan computes the ranges for length and hands them to sink in order: the
// head chunk first, then stepped chunks by increasing offset.
func (p *Planner) Plan(length int64, key KeyHandle, sink Sink) (Result, error) {
	if sink == nil {
		sink = Discard
	}

	res, err := p.planHead(length, key, sink)
	if err != nil {
		return res, err
	}

	return p.planBody(res, key, sink)
}

// Ranges runs Plan with a Recorder and returns what it collected.
func (p *Planner) Ranges(length int64) ([]Range, Result, error) {
	rec := &Recorder{}

	res, err := p.Plan(length, nil, rec)

	return rec.Ranges, res, err
}

func (p *Planner) planHead(length int64, key KeyHandle, sink Sink) (Result, error) {
	params := bracket.Classify(length)

	res := Result{
		Length:   length,
		Bracket:  params.Bracket,
		Head:     params.Head,
		Residual: length - params.ConsumedHead,
	}

	if params.Head != nil {
		sink.EncryptRange(params.Head.Offset, params.Head.Length, length, key)
	}

	n, err := blocks.Count(res.Residual)
	if err != nil {
		return res, fmt.Errorf("planning length %d: %w", length, err)
	}

	res.Blocks = n
	res.Ratio = ratio.Resolve(params, n)
	res.Transient = ratio.Transient(params, n)

	return res, nil
}

func (p *Planner) planBody(res Result, key KeyHandle, sink Sink) (Result, error) {
	start := res.Length - res.Residual

	d := skip.Derive(res.Blocks, res.Ratio)
	if d.Truncated == 0 {
		res.SinglePass = true
		if res.Length > 0 {
			sink.EncryptRange(start, res.Residual, res.Length, key)
		}

		return res, nil
	}

	res.Step = d.Step

	if p.mode != ModeUnchecked {
		if err := skip.Check(d.Step, p.expected); err != nil {
			var v *skip.PolicyViolation
			errors.As(err, &v)

			p.log.WithFields(logrus.Fields{
				"length":  res.Length,
				"bracket": res.Bracket,
				"step":    v.Step,
				"bytes":   v.Bytes(),
			}).Debug("policy violation")

			p.halt(v)

			return res, err
		}

		if p.mode == ModeValidate {
			return res, nil
		}
	}

	if d.Step == 0 {
		res.SinglePass = true
		sink.EncryptRange(start, res.Residual, res.Length, key)

		return res, nil
	}

	for r := range emitter.Ranges(start, res.Blocks, d.Step) {
		sink.EncryptRange(r.Offset, r.Length, res.Length, key)
		res.Chunks++
	}

	return res, nil
}

func (p *Planner) exit(v *PolicyViolation) {
	fmt.Fprintf(os.Stdout, "skip %d: %d \n", v.Step, v.Bytes())
	os.Exit(0)
}
