package scenario

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bam241/recycle/sim/record"
)

// fullScenario exercises every archetype kind: a mine feeding an
// enrichment plant whose product and tails drain into stores.
const fullScenario = `
duration: 2
commodities: [natl_u, enriched_u, depleted_u]
recipes:
  natl_u:
    U235: 0.0072
    U238: 0.9928
  leu:
    U235: 0.05
    U238: 0.95
agents:
  - kind: source
    prototype: mine
    config:
      commodity: natl_u
      recipe: natl_u
      throughput: 100
  - kind: enrichment
    prototype: enricher
    config:
      in_commodity: natl_u
      out_commodity: enriched_u
      tails_commodity: depleted_u
      in_recipe: natl_u
      out_recipe: leu
      swu_capacity: 100
      max_feed_inventory: 1000
  - kind: sink
    prototype: reactor_store
    config:
      commodities: [enriched_u]
      recipe: leu
      capacity: 1
  - kind: sink
    prototype: tails_store
    config:
      commodities: [depleted_u]
`

func writeScenario(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidScenario(t *testing.T) {
	sc, err := Load(writeScenario(t, fullScenario))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sc.Duration != 2 {
		t.Errorf("duration = %d, want 2", sc.Duration)
	}
	if len(sc.Commodities) != 3 || sc.Commodities[0] != "natl_u" {
		t.Errorf("commodities = %v", sc.Commodities)
	}
	if len(sc.Recipes) != 2 {
		t.Errorf("recipes count = %d, want 2", len(sc.Recipes))
	}
	if got := sc.Recipes["natl_u"]["U235"]; got != 0.0072 {
		t.Errorf("natl_u U235 = %v, want 0.0072", got)
	}
	if len(sc.Agents) != 4 {
		t.Fatalf("agents count = %d, want 4", len(sc.Agents))
	}
	if sc.Agents[1].Kind != "enrichment" || sc.Agents[1].Prototype != "enricher" {
		t.Errorf("agents[1] = %s/%s", sc.Agents[1].Kind, sc.Agents[1].Prototype)
	}
}

func TestLoad_UnknownTopLevelField_Fails(t *testing.T) {
	_, err := Load(writeScenario(t, "durations: 3\ncommodities: [a]\n"))
	if err == nil {
		t.Fatal("Load accepted an unknown top-level field")
	}
}

func TestScenario_Validate_Failures(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Duration:    3,
			Commodities: []string{"natl_u"},
			Recipes:     map[string]map[string]float64{"natl_u": {"U235": 0.0072, "U238": 0.9928}},
			Agents:      []AgentSpec{{Kind: "source", Prototype: "mine"}},
		}
	}
	cases := []struct {
		name string
		mod  func(*Scenario)
		want string
	}{
		{"zero duration", func(s *Scenario) { s.Duration = 0 }, "duration"},
		{"no commodities", func(s *Scenario) { s.Commodities = nil }, "commodity"},
		{"empty commodity", func(s *Scenario) { s.Commodities = []string{""} }, "commodities[0]"},
		{"duplicate commodity", func(s *Scenario) { s.Commodities = []string{"u", "u"} }, "duplicate"},
		{"empty recipe", func(s *Scenario) { s.Recipes["natl_u"] = nil }, "no nuclides"},
		{"no agents", func(s *Scenario) { s.Agents = nil }, "agent"},
		{"missing kind", func(s *Scenario) { s.Agents[0].Kind = "" }, "kind"},
		{"missing prototype", func(s *Scenario) { s.Agents[0].Prototype = "" }, "prototype"},
		{
			"duplicate prototype",
			func(s *Scenario) { s.Agents = append(s.Agents, AgentSpec{Kind: "sink", Prototype: "mine"}) },
			"duplicate prototype",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sc := base()
			c.mod(sc)
			err := sc.Validate()
			if err == nil {
				t.Fatal("Validate passed")
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not mention %q", err, c.want)
			}
		})
	}
}

func TestBuild_UnknownKind_Fails(t *testing.T) {
	sc, err := Load(writeScenario(t, `
duration: 1
commodities: [natl_u]
recipes:
  natl_u: {U235: 0.0072, U238: 0.9928}
agents:
  - kind: reactor
    prototype: lwr
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Build(sc, record.NewNoop()); err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Errorf("Build: got %v, want unknown kind error", err)
	}
}

func TestBuild_UnknownConfigField_Fails(t *testing.T) {
	sc, err := Load(writeScenario(t, `
duration: 1
commodities: [natl_u]
recipes:
  natl_u: {U235: 0.0072, U238: 0.9928}
agents:
  - kind: source
    prototype: mine
    config:
      commodity: natl_u
      recipe: natl_u
      thruput: 100
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Build(sc, record.NewNoop()); err == nil {
		t.Error("Build accepted a misspelled config field")
	}
}

func TestBuild_BadNuclide_Fails(t *testing.T) {
	sc, err := Load(writeScenario(t, `
duration: 1
commodities: [natl_u]
recipes:
  natl_u: {Xx235: 1.0}
agents:
  - kind: source
    prototype: mine
    config: {commodity: natl_u, recipe: natl_u}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Build(sc, record.NewNoop()); err == nil || !strings.Contains(err.Error(), `recipe "natl_u"`) {
		t.Errorf("Build: got %v, want recipe-named error", err)
	}
}

func TestBuild_RunsFullScenario(t *testing.T) {
	sc, err := Load(writeScenario(t, fullScenario))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := Build(sc, record.NewNoop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	m := s.Context().Metrics()
	if m.Periods != 2 {
		t.Errorf("periods = %d, want 2", m.Periods)
	}
	if m.TradesExecuted != 6 {
		t.Errorf("trades = %d, want 6", m.TradesExecuted)
	}
	if got := m.QtyByCommodity["natl_u"]; math.Abs(got-200) > 1e-9 {
		t.Errorf("natural uranium traded = %v, want 200", got)
	}
	if got := m.QtyByCommodity["enriched_u"]; math.Abs(got-2) > 1e-9 {
		t.Errorf("product traded = %v, want 2", got)
	}
	// 1 kg of 5% product per period from 0.72% feed at 0.3% tails
	if got := m.SwuConsumed; math.Abs(got-2*7.126867703784669) > 1e-9 {
		t.Errorf("swu consumed = %v, want %v", got, 2*7.126867703784669)
	}
	if got := m.QtyByCommodity["depleted_u"]; math.Abs(got-2*10.190476190476192) > 1e-9 {
		t.Errorf("tails traded = %v, want %v", got, 2*10.190476190476192)
	}
}
