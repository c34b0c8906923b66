package breathing

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPattern = errors.New("invalid breathing pattern")

// Phase names a single step of a breathing cycle.
type Phase string

const (
	Inhale Phase = "inhale"
	Hold   Phase = "hold"
	Exhale Phase = "exhale"
)

// Completion is emitted once every cycle has finished.
const Completion = "Nice job. Notice what changed in your body, even a little."

// Pattern describes a paced-breathing exercise, durations in seconds.
type Pattern struct {
	Inhale int `json:"inhale"`
	Hold   int `json:"hold"`
	Exhale int `json:"exhale"`
	Cycles int `json:"cycles"`
}

// DefaultPattern is the 4-2-6 rhythm repeated three times.
func DefaultPattern() Pattern {
	return Pattern{Inhale: 4, Hold: 2, Exhale: 6, Cycles: 3}
}

type bound struct {
	name     string
	value    int
	min, max int
}

// Validate enforces inhale 3-10s, hold 0-10s, exhale 4-12s and 1-8 cycles.
func (p Pattern) Validate() error {
	for _, b := range []bound{
		{"inhale", p.Inhale, 3, 10},
		{"hold", p.Hold, 0, 10},
		{"exhale", p.Exhale, 4, 12},
		{"cycles", p.Cycles, 1, 8},
	} {
		if b.value < b.min || b.value > b.max {
			return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidPattern, b.name, b.min, b.max, b.value)
		}
	}
	return nil
}

// Step is one timed phase within a cycle. Cycle is 1-based.
type Step struct {
	Cycle    int           `json:"cycle"`
	Cycles   int           `json:"cycles"`
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"-"`
	Seconds  int           `json:"seconds"`
}

// Label renders the step the way a timer would announce it.
func (s Step) Label() string {
	return fmt.Sprintf("Cycle %d/%d – %s", s.Cycle, s.Cycles, s.Phase)
}

// Steps expands the pattern into its ordered phases; a zero hold is skipped.
func (p Pattern) Steps() []Step {
	steps := make([]Step, 0, p.Cycles*3)
	for c := 1; c <= p.Cycles; c++ {
		steps = append(steps, newStep(c, p.Cycles, Inhale, p.Inhale))
		if p.Hold > 0 {
			steps = append(steps, newStep(c, p.Cycles, Hold, p.Hold))
		}
		steps = append(steps, newStep(c, p.Cycles, Exhale, p.Exhale))
	}
	return steps
}

// Total is the wall-clock length of the whole exercise.
func (p Pattern) Total() time.Duration {
	var total time.Duration
	for _, s := range p.Steps() {
		total += s.Duration
	}
	return total
}

func newStep(cycle, cycles int, phase Phase, seconds int) Step {
	return Step{
		Cycle:    cycle,
		Cycles:   cycles,
		Phase:    phase,
		Duration: time.Duration(seconds) * time.Second,
		Seconds:  seconds,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run walks the pattern, calling emit before each phase waits out its duration.
// It stops early when ctx is cancelled or emit fails.
func Run(ctx context.Context, p Pattern, sleep SleepFunc, emit func(Step) error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if sleep == nil {
		sleep = Sleep
	}

	for _, step := range p.Steps() {
		if err := emit(step); err != nil {
			return err
		}
		if err := sleep(ctx, step.Duration); err != nil {
			return err
		}
	}
	return nil
}
