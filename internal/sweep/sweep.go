// Package sweep evaluates the planner over a range of lengths.
package sweep

import (
	"context"
	"sync/atomic"

	"github.com/fhilgers/rangeplan/internal/bracket"
	"github.com/fhilgers/rangeplan/pkg/planner"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultProgressEvery = 1 << 26

type Options struct {
	From, To int64
	Workers  int

	// OnResult is called for every planned length. With more than one
	// worker it is called concurrently.
	OnResult func(planner.Result)

	ProgressEvery int64
	Logger        *logrus.Logger
}

// Stats counts the evaluated lengths per bracket.
type Stats struct {
	Lengths    int64            `json:"lengths" yaml:"lengths"`
	SinglePass int64            `json:"singlePass" yaml:"singlePass"`
	Brackets   map[string]int64 `json:"brackets" yaml:"brackets"`
}

type counters struct {
	lengths    atomic.Int64
	singlePass atomic.Int64
	brackets   [bracket.Default + 1]atomic.Int64
}

func (c *counters) add(res planner.Result) {
	c.lengths.Add(1)
	if res.SinglePass {
		c.singlePass.Add(1)
	}
	c.brackets[res.Bracket].Add(1)
}

func (c *counters) stats() Stats {
	s := Stats{
		Lengths:    c.lengths.Load(),
		SinglePass: c.singlePass.Load(),
		Brackets:   make(map[string]int64),
	}

	for b := range c.brackets {
		if n := c.brackets[b].Load(); n > 0 {
			s.Brackets[bracket.Bracket(b).String()] = n
		}
	}

	return s
}

// Run plans every length in [From, To). Each worker takes every Workers-th
// length. The first error cancels the other workers and is returned; with the
// planner's default halt a policy violation ends the process before that.
func Run(ctx context.Context, p *planner.Planner, opts Options) (Stats, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	if opts.ProgressEvery == 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}

	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	var c counters

	g, ctx := errgroup.WithContext(ctx)

	for w := 0; w < opts.Workers; w++ {
		first := opts.From + int64(w)
		stride := int64(opts.Workers)

		g.Go(func() error {
			for length := first; length < opts.To; length += stride {
				if err := ctx.Err(); err != nil {
					return err
				}

				res, err := p.Plan(length, nil, planner.Discard)
				if err != nil {
					return err
				}

				c.add(res)

				if opts.OnResult != nil {
					opts.OnResult(res)
				}

				if n := c.lengths.Load(); opts.ProgressEvery > 0 && n%opts.ProgressEvery == 0 {
					opts.Logger.WithFields(logrus.Fields{
						"length":    length,
						"evaluated": n,
					}).Info("sweeping")
				}
			}

			return nil
		})
	}

	err := g.Wait()

	return c.stats(), err
}
