// Package scenario loads simulation scenario files and assembles the
// simulator they describe. A scenario names the run length, the
// commodity resolution order, a recipe table, and the agents with their
// per-kind config blocks.
package scenario

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/bam241/recycle/nuc"
	"github.com/bam241/recycle/sim"
	"github.com/bam241/recycle/sim/agents"
	"github.com/bam241/recycle/sim/enrich"
	"github.com/bam241/recycle/sim/record"
)

type Scenario struct {
	Duration    int                           `yaml:"duration"`
	Commodities []string                      `yaml:"commodities"`
	Recipes     map[string]map[string]float64 `yaml:"recipes"`
	Agents      []AgentSpec                   `yaml:"agents"`
}

// AgentSpec pairs an archetype kind with its config block. The block
// stays an untyped node until the kind picks the config struct.
type AgentSpec struct {
	Kind      string    `yaml:"kind"`
	Prototype string    `yaml:"prototype"`
	Config    yaml.Node `yaml:"config"`
}

// Load reads and validates a scenario file. Unknown top-level fields are
// rejected; config blocks are checked against their kind in Build.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario's own structure. Cross-references into
// the recipe table are checked by the agent constructors.
func (sc *Scenario) Validate() error {
	if sc.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %d", sc.Duration)
	}
	if len(sc.Commodities) == 0 {
		return fmt.Errorf("at least one commodity required")
	}
	seen := make(map[string]bool)
	for i, c := range sc.Commodities {
		if c == "" {
			return fmt.Errorf("commodities[%d]: empty name", i)
		}
		if seen[c] {
			return fmt.Errorf("commodities[%d]: duplicate %q", i, c)
		}
		seen[c] = true
	}
	for name, fracs := range sc.Recipes {
		if name == "" {
			return fmt.Errorf("recipes: empty recipe name")
		}
		if len(fracs) == 0 {
			return fmt.Errorf("recipe %q: no nuclides", name)
		}
	}
	if len(sc.Agents) == 0 {
		return fmt.Errorf("at least one agent required")
	}
	protos := make(map[string]bool)
	for i, a := range sc.Agents {
		if a.Kind == "" {
			return fmt.Errorf("agents[%d]: kind required", i)
		}
		if a.Prototype == "" {
			return fmt.Errorf("agents[%d]: prototype required", i)
		}
		if protos[a.Prototype] {
			return fmt.Errorf("agents[%d]: duplicate prototype %q", i, a.Prototype)
		}
		protos[a.Prototype] = true
	}
	return nil
}

// Build assembles the simulator a scenario describes: recipes into the
// context, then agents in file order so trade tie-breaking follows the
// scenario.
func Build(sc *Scenario, rec record.Recorder) (*sim.Simulator, error) {
	ctx := sim.NewContext(rec)
	for _, name := range sortedNames(sc.Recipes) {
		comp, err := buildRecipe(sc.Recipes[name])
		if err != nil {
			return nil, fmt.Errorf("recipe %q: %w", name, err)
		}
		if err := ctx.AddRecipe(name, comp); err != nil {
			return nil, err
		}
	}

	s, err := sim.NewSimulator(ctx, sc.Duration, sc.Commodities)
	if err != nil {
		return nil, err
	}

	for i, a := range sc.Agents {
		agent, err := buildAgent(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("agents[%d]: %w", i, err)
		}
		s.AddAgent(agent)
	}
	return s, nil
}

func buildRecipe(fracs map[string]float64) (*sim.Composition, error) {
	masses := make(map[nuc.Nuc]float64, len(fracs))
	for name, frac := range fracs {
		n, err := nuc.Parse(name)
		if err != nil {
			return nil, err
		}
		masses[n] += frac
	}
	return sim.NewComposition(masses)
}

func buildAgent(ctx *sim.Context, a AgentSpec) (sim.Agent, error) {
	switch a.Kind {
	case enrich.Kind:
		cfg := enrich.DefaultConfig()
		if err := decodeConfig(&a.Config, &cfg); err != nil {
			return nil, err
		}
		return enrich.New(ctx, a.Prototype, cfg)
	case agents.KindSource:
		cfg := agents.DefaultSourceConfig()
		if err := decodeConfig(&a.Config, &cfg); err != nil {
			return nil, err
		}
		return agents.NewSource(ctx, a.Prototype, cfg)
	case agents.KindSink:
		cfg := agents.DefaultSinkConfig()
		if err := decodeConfig(&a.Config, &cfg); err != nil {
			return nil, err
		}
		return agents.NewSink(ctx, a.Prototype, cfg)
	default:
		return nil, fmt.Errorf("unknown kind %q", a.Kind)
	}
}

// decodeConfig applies a config block over the kind's defaults,
// rejecting unknown fields. Node.Decode alone would ignore them.
func decodeConfig(n *yaml.Node, out any) error {
	if n.IsZero() {
		return nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func sortedNames(m map[string]map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
