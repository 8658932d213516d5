// Package synth produces synthetic observed logs from a pattern, imitating an
// imperfect detector: events are dropped, shifted and mixed with noise.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/pattern"
	"github.com/okian/detbench/pkg/errkind"
	"github.com/okian/detbench/pkg/logger"
)

// Config controls one synthetic run.
type Config struct {
	Pattern     model.PatternSpec
	StartOffset int
	MaxOffset   int
	// Jitter is the largest shift, either way, applied to a kept event.
	Jitter int
	// DropRate is the probability an expected event is not reported.
	DropRate float64
	// SpuriousRate is the expected number of noise events per expected event.
	SpuriousRate float64
	Seed         int64
}

func (c Config) validate() error {
	switch {
	case c.Jitter < 0:
		return fmt.Errorf("%w: negative jitter %d", ErrInvalidConfig, c.Jitter)
	case c.DropRate < 0 || c.DropRate > 1:
		return fmt.Errorf("%w: drop rate %v outside [0,1]", ErrInvalidConfig, c.DropRate)
	case c.SpuriousRate < 0 || c.SpuriousRate > 1:
		return fmt.Errorf("%w: spurious rate %v outside [0,1]", ErrInvalidConfig, c.SpuriousRate)
	}
	return nil
}

// Generate walks the expected schedule and returns the samples a detector with
// the configured imperfections would report, sorted by offset. The same Config
// always yields the same samples.
func Generate(ctx context.Context, cfg Config) ([]model.Sample, error) {
	const op = "synth.generate"
	if err := cfg.validate(); err != nil {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, err)
	}
	expected, err := pattern.Expected(cfg.Pattern, cfg.StartOffset, cfg.MaxOffset)
	if err != nil {
		return nil, errkind.Wrap(op, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible noise, not security
	labels := cfg.Pattern.Labels()
	out := make([]model.Sample, 0, len(expected))
	dropped, spurious := 0, 0

	for i, ev := range expected {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errkind.WrapKind(op, errkind.ErrInternal, err)
			}
		}
		if rng.Float64() < cfg.DropRate {
			dropped++
		} else {
			out = append(out, model.Sample{Offset: shift(rng, ev.Offset, cfg.Jitter), Name: ev.Label})
		}
		if rng.Float64() < cfg.SpuriousRate {
			spurious++
			off := cfg.StartOffset + rng.Intn(cfg.MaxOffset-cfg.StartOffset)
			out = append(out, model.Sample{Offset: off, Name: labels[rng.Intn(len(labels))]})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })

	logger.Get().Debug(ctx, "generated synthetic log",
		logger.Int("expected", len(expected)),
		logger.Int("samples", len(out)),
		logger.Int("dropped", dropped),
		logger.Int("spurious", spurious),
	)
	return out, nil
}

func shift(rng *rand.Rand, offset, jitter int) int {
	if jitter == 0 {
		return offset
	}
	off := offset + rng.Intn(2*jitter+1) - jitter
	if off < 0 {
		return 0
	}
	return off
}
