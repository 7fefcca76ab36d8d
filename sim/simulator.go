// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds simulation time, the agent
// roster, and the per-period phase loop. Each period every agent Ticks,
// the exchange resolves each commodity in declared order, and every
// agent Tocks. Agent registration order fixes every ordering downstream,
// so a scenario is fully deterministic.
type Simulator struct {
	Duration    int
	ctx         *Context
	agents      []Agent
	traders     []Trader
	commodities []string
}

// NewSimulator builds a simulator that runs for duration periods and
// resolves the given commodities in order within each period.
func NewSimulator(ctx *Context, duration int, commodities []string) (*Simulator, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: simulator needs a context", ErrConfig)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrConfig, duration)
	}
	if len(commodities) == 0 {
		return nil, fmt.Errorf("%w: simulator needs at least one commodity", ErrConfig)
	}
	seen := make(map[string]bool, len(commodities))
	for _, c := range commodities {
		if c == "" {
			return nil, fmt.Errorf("%w: commodity names must be non-empty", ErrConfig)
		}
		if seen[c] {
			return nil, fmt.Errorf("%w: commodity %q listed twice", ErrConfig, c)
		}
		seen[c] = true
	}
	return &Simulator{
		Duration:    duration,
		ctx:         ctx,
		commodities: append([]string(nil), commodities...),
	}, nil
}

// Context returns the simulator's shared context.
func (s *Simulator) Context() *Context {
	return s.ctx
}

// AddAgent registers an agent. Registration order is the tick order and
// the exchange arrival order.
func (s *Simulator) AddAgent(a Agent) {
	s.agents = append(s.agents, a)
	if tr, ok := a.(Trader); ok {
		s.traders = append(s.traders, tr)
	}
}

// Run executes the simulation and returns the first error any period
// surfaces.
func (s *Simulator) Run() error {
	ex := NewExchange(s.ctx, s.traders)

	for t := 0; t < s.Duration; t++ {
		s.ctx.advance(t)
		if err := s.ctx.RecordTimestep(); err != nil {
			return err
		}
		logrus.Infof("[period %04d] begin", t)

		for _, a := range s.agents {
			a.Tick()
		}

		for _, c := range s.commodities {
			n, err := ex.Resolve(c)
			if err != nil {
				return fmt.Errorf("period %d, commodity %q: %w", t, c, err)
			}
			if n > 0 {
				logrus.Debugf("[period %04d] resolved %q: %d trades", t, c, n)
			}
		}

		for _, a := range s.agents {
			a.Tock()
		}
		s.ctx.metrics.Periods++
	}

	logrus.Infof("[period %04d] simulation ended", s.Duration)
	return nil
}
