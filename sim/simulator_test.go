package sim

import (
	"errors"
	"strings"
	"testing"
)

// seqAgent records the order of its lifecycle calls in a shared log.
type seqAgent struct {
	id    int
	name  string
	calls *[]string
}

func (a *seqAgent) ID() int           { return a.id }
func (a *seqAgent) Prototype() string { return a.name }
func (a *seqAgent) Kind() string      { return "seq" }
func (a *seqAgent) Tick()             { *a.calls = append(*a.calls, a.name+".tick") }
func (a *seqAgent) Tock()             { *a.calls = append(*a.calls, a.name+".tock") }

// bidsRecorder notes which commodity each bid round carries.
type bidsRecorder struct {
	seqAgent
	seen []string
}

func (b *bidsRecorder) Requests() []*Request { return nil }

func (b *bidsRecorder) Bids(reqs []*Request) *BidPortfolio {
	b.seen = append(b.seen, reqs[0].Commodity)
	return nil
}

func (b *bidsRecorder) AdjustPrefs(PrefMap) {}

func (b *bidsRecorder) ExecuteTrades([]Trade) ([]*Material, error) {
	return nil, errors.New("recorder does not trade")
}

func (b *bidsRecorder) AcceptDeliveries([]Delivery) error {
	return errors.New("recorder does not trade")
}

func TestNewSimulator_BadArguments_Fail(t *testing.T) {
	ctx := NewContext(nil)
	cases := []struct {
		name        string
		ctx         *Context
		duration    int
		commodities []string
	}{
		{"nil context", nil, 10, []string{"fuel"}},
		{"zero duration", ctx, 0, []string{"fuel"}},
		{"negative duration", ctx, -3, []string{"fuel"}},
		{"no commodities", ctx, 10, nil},
		{"empty commodity name", ctx, 10, []string{""}},
		{"duplicate commodity", ctx, 10, []string{"fuel", "fuel"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewSimulator(c.ctx, c.duration, c.commodities); !errors.Is(err, ErrConfig) {
				t.Errorf("NewSimulator: got %v, want ErrConfig", err)
			}
		})
	}
}

func TestSimulator_Run_TicksThenTocksInRegistrationOrder(t *testing.T) {
	ctx := NewContext(nil)
	s, err := NewSimulator(ctx, 2, []string{"fuel"})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	var calls []string
	s.AddAgent(&seqAgent{id: 1, name: "a", calls: &calls})
	s.AddAgent(&seqAgent{id: 2, name: "b", calls: &calls})

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"a.tick", "b.tick", "a.tock", "b.tock",
		"a.tick", "b.tick", "a.tock", "b.tock",
	}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("lifecycle order:\n got %v\nwant %v", calls, want)
	}
	if got := ctx.Metrics().Periods; got != 2 {
		t.Errorf("periods: got %d, want 2", got)
	}
}

func TestSimulator_Run_ResolvesCommoditiesInDeclaredOrder(t *testing.T) {
	ctx := NewContext(nil)
	s, err := NewSimulator(ctx, 1, []string{"waste", "fuel"})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	var calls []string
	buyer := &fakeRequester{id: 1, name: "buyer", reqs: []*Request{
		{Commodity: "fuel", Qty: 5},
		{Commodity: "waste", Qty: 2},
	}}
	rec := &bidsRecorder{seqAgent: seqAgent{id: 2, name: "rec", calls: &calls}}
	s.AddAgent(buyer)
	s.AddAgent(rec)

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if strings.Join(rec.seen, ",") != "waste,fuel" {
		t.Errorf("round order: got %v, want [waste fuel]", rec.seen)
	}
}

func TestSimulator_Run_TradesEveryPeriod(t *testing.T) {
	ctx := NewContext(nil)
	s, err := NewSimulator(ctx, 3, []string{"fuel"})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	buyer := &fakeRequester{id: 1, name: "buyer", reqs: []*Request{{Commodity: "fuel", Qty: 5}}}
	seller := &fakeBidder{id: 2, name: "seller", commodity: "fuel", comp: natU(t), avail: 100}
	s.AddAgent(buyer)
	s.AddAgent(seller)

	if err := s.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := ctx.Metrics().TradesExecuted; got != 3 {
		t.Errorf("trades: got %d, want 3", got)
	}
	if got := ctx.Metrics().QtyByCommodity["fuel"]; !almost(got, 15) {
		t.Errorf("traded fuel: got %v kg, want 15", got)
	}
	if len(buyer.got) != 3 {
		t.Errorf("deliveries: got %d, want 3", len(buyer.got))
	}
}

func TestSimulator_Run_TradeFailure_StopsRun(t *testing.T) {
	ctx := NewContext(nil)
	s, err := NewSimulator(ctx, 5, []string{"fuel"})
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}

	buyer := &fakeRequester{id: 1, name: "buyer", reqs: []*Request{{Commodity: "fuel", Qty: 5}}}
	seller := &fakeBidder{
		id: 2, name: "seller", commodity: "fuel", comp: natU(t), avail: 100,
		execErr: errors.New("centrifuge jammed"),
	}
	s.AddAgent(buyer)
	s.AddAgent(seller)

	err = s.Run()
	if err == nil {
		t.Fatal("Run: got nil error, want trade failure")
	}
	if !strings.Contains(err.Error(), "period 0") {
		t.Errorf("error should name the failing period: %v", err)
	}
	if got := ctx.Metrics().Periods; got != 0 {
		t.Errorf("completed periods after failure: got %d, want 0", got)
	}
}
