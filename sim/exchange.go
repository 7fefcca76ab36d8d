// Implements the per-commodity resource exchange: requests are collected,
// bids gathered and ranked by requester preference, then matched greedily
// under the bidders' capacity constraints.

package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// DefaultPref is the preference every (request, bid) pair starts with
// before requesters adjust.
const DefaultPref = 1.0

// Request asks the market for a quantity of a commodity at a target
// composition.
type Request struct {
	Commodity string
	Qty       float64
	Target    *Composition
	Requester Trader

	idx int // arrival order within the round, assigned by the exchange
}

// Bid offers material against exactly one request. The offer's quantity
// is the most the bidder would supply for that request alone; portfolio
// constraints bound what several bids may supply together.
type Bid struct {
	Request *Request
	Offer   *Material
	Bidder  Trader

	idx       int
	portfolio *BidPortfolio
}

// CapacityConstraint limits the summed converted cost of all trades drawn
// from one portfolio. Converter costs are linear in trade quantity.
type CapacityConstraint struct {
	Conv     Converter
	Capacity float64
}

// Converter prices a candidate material in a constraint's budget units.
// Implementations form a closed set of small value types; Equal compares
// kind and parameters.
type Converter interface {
	Convert(m *Material) (float64, error)
	Equal(other Converter) bool
}

// QtyConverter prices a material by its mass alone. It is the constraint
// converter for plain inventory-limited bidding.
type QtyConverter struct{}

func (QtyConverter) Convert(m *Material) (float64, error) { return m.Quantity(), nil }

func (QtyConverter) Equal(other Converter) bool {
	_, ok := other.(QtyConverter)
	return ok
}

// BidPortfolio groups the bids one trader issues in a commodity round
// together with the capacity constraints they share.
type BidPortfolio struct {
	Bids        []*Bid
	Constraints []CapacityConstraint
}

// Trade is a matched (request, bid) pair at a settled quantity.
type Trade struct {
	Request *Request
	Bid     *Bid
	Qty     float64
}

// Delivery pairs an executed trade with the material the supplier
// produced for it.
type Delivery struct {
	Trade Trade
	Mat   *Material
}

// PrefMap holds requester preferences, one score per candidate bid.
type PrefMap map[*Request]map[*Bid]float64

// Exchange matches requests against bids one commodity at a time. All
// orderings are fixed by trader registration order and arrival indices,
// so a scenario resolves identically on every run.
type Exchange struct {
	ctx     *Context
	traders []Trader
}

// NewExchange builds an exchange over the traders in registration order.
func NewExchange(ctx *Context, traders []Trader) *Exchange {
	return &Exchange{ctx: ctx, traders: traders}
}

// Resolve runs one commodity round: collect requests, collect bids, let
// requesters rank, match greedily, execute and deliver. Returns the
// number of executed trades. Execution or delivery failures abort the
// round and surface upward.
func (ex *Exchange) Resolve(commodity string) (int, error) {
	reqs := ex.collectRequests(commodity)
	if len(reqs) == 0 {
		return 0, nil
	}

	byReq, portfolios := ex.collectBids(reqs)
	if len(portfolios) == 0 {
		return 0, nil
	}

	prefs := ex.rankBids(reqs, byReq)

	trades, err := ex.match(reqs, byReq, prefs)
	if err != nil {
		return 0, err
	}
	if len(trades) == 0 {
		return 0, nil
	}

	if err := ex.settle(commodity, trades); err != nil {
		return 0, err
	}
	return len(trades), nil
}

// collectRequests gathers this commodity's requests from every trader.
// Arrival order is trader registration order, then per-trader order.
func (ex *Exchange) collectRequests(commodity string) []*Request {
	var reqs []*Request
	for _, tr := range ex.traders {
		for _, r := range tr.Requests() {
			if r.Commodity != commodity || r.Qty <= Eps {
				continue
			}
			r.Requester = tr
			r.idx = len(reqs)
			reqs = append(reqs, r)
		}
	}
	return reqs
}

// collectBids gathers bid portfolios against the round's requests and
// indexes the bids by request.
func (ex *Exchange) collectBids(reqs []*Request) (map[*Request][]*Bid, []*BidPortfolio) {
	byReq := make(map[*Request][]*Bid, len(reqs))
	var portfolios []*BidPortfolio
	bidIdx := 0
	for _, tr := range ex.traders {
		pf := tr.Bids(reqs)
		if pf == nil || len(pf.Bids) == 0 {
			continue
		}
		for _, b := range pf.Bids {
			b.Bidder = tr
			b.portfolio = pf
			b.idx = bidIdx
			bidIdx++
			byReq[b.Request] = append(byReq[b.Request], b)
		}
		portfolios = append(portfolios, pf)
	}
	return byReq, portfolios
}

// rankBids seeds every pair with DefaultPref, then hands each requester
// the preference maps for its own requests.
func (ex *Exchange) rankBids(reqs []*Request, byReq map[*Request][]*Bid) PrefMap {
	prefs := make(PrefMap, len(reqs))
	for _, r := range reqs {
		bm := make(map[*Bid]float64, len(byReq[r]))
		for _, b := range byReq[r] {
			bm[b] = DefaultPref
		}
		prefs[r] = bm
	}
	for _, tr := range ex.traders {
		sub := make(PrefMap)
		for _, r := range reqs {
			if r.Requester == tr {
				sub[r] = prefs[r]
			}
		}
		if len(sub) > 0 {
			tr.AdjustPrefs(sub)
		}
	}
	return prefs
}

// match walks requests in arrival order and bids in preference order,
// truncating each trade so no portfolio constraint goes negative.
func (ex *Exchange) match(reqs []*Request, byReq map[*Request][]*Bid, prefs PrefMap) ([]Trade, error) {
	remainingCap := make(map[*BidPortfolio][]float64)

	var trades []Trade
	for _, r := range reqs {
		bids := append([]*Bid(nil), byReq[r]...)
		sort.SliceStable(bids, func(i, j int) bool {
			pi, pj := prefs[r][bids[i]], prefs[r][bids[j]]
			if pi != pj {
				return pi > pj
			}
			return bids[i].idx < bids[j].idx
		})

		remaining := r.Qty
		for _, b := range bids {
			if remaining <= Eps {
				break
			}
			if prefs[r][b] < 0 {
				continue
			}

			qty := math.Min(remaining, b.Offer.Quantity())

			pf := b.portfolio
			caps, ok := remainingCap[pf]
			if !ok {
				caps = make([]float64, len(pf.Constraints))
				for i, cc := range pf.Constraints {
					caps[i] = cc.Capacity
				}
				remainingCap[pf] = caps
			}

			// Charge each constraint at the bid's per-kg cost. Costs
			// are linear in quantity, so one probe conversion prices
			// the whole candidate trade.
			units := make([]float64, len(pf.Constraints))
			for i, cc := range pf.Constraints {
				probe := &Material{qty: 1, comp: b.Offer.Comp()}
				unit, err := cc.Conv.Convert(probe)
				if err != nil {
					return nil, fmt.Errorf("convert bid for %q: %w", r.Commodity, err)
				}
				units[i] = unit
				if unit > 0 {
					qty = math.Min(qty, caps[i]/unit)
				}
			}
			if qty <= Eps {
				continue
			}

			trades = append(trades, Trade{Request: r, Bid: b, Qty: qty})
			for i, unit := range units {
				caps[i] -= unit * qty
			}
			remaining -= qty
		}
	}
	return trades, nil
}

// settle executes trades supplier by supplier, records each delivered
// material, and hands deliveries to the requesters.
func (ex *Exchange) settle(commodity string, trades []Trade) error {
	// group trades per supplier, preserving match order
	var suppliers []Trader
	bySupplier := make(map[Trader][]Trade)
	for _, tr := range trades {
		sup := tr.Bid.Bidder
		if _, ok := bySupplier[sup]; !ok {
			suppliers = append(suppliers, sup)
		}
		bySupplier[sup] = append(bySupplier[sup], tr)
	}

	var requesters []Trader
	byRequester := make(map[Trader][]Delivery)
	for _, sup := range suppliers {
		sts := bySupplier[sup]
		mats, err := sup.ExecuteTrades(sts)
		if err != nil {
			return fmt.Errorf("execute trades by %q: %w", sup.Prototype(), err)
		}
		if len(mats) != len(sts) {
			return fmt.Errorf("%q returned %d materials for %d trades", sup.Prototype(), len(mats), len(sts))
		}
		for i, trade := range sts {
			mat := mats[i]
			resID, err := ex.ctx.RecordMaterial(mat)
			if err != nil {
				return err
			}
			req := trade.Request
			if err := ex.ctx.RecordTransaction(sup.ID(), req.Requester.ID(), resID, commodity); err != nil {
				return err
			}
			ex.ctx.metrics.TradesExecuted++
			ex.ctx.metrics.QtyByCommodity[commodity] += mat.Quantity()
			logrus.Debugf("[period %04d] trade %s: %.4f kg from %s to %s",
				ex.ctx.time, commodity, mat.Quantity(), sup.Prototype(), req.Requester.Prototype())

			rcv := req.Requester
			if _, ok := byRequester[rcv]; !ok {
				requesters = append(requesters, rcv)
			}
			byRequester[rcv] = append(byRequester[rcv], Delivery{Trade: trade, Mat: mat})
		}
	}

	for _, rcv := range requesters {
		if err := rcv.AcceptDeliveries(byRequester[rcv]); err != nil {
			return fmt.Errorf("deliver to %q: %w", rcv.Prototype(), err)
		}
	}
	return nil
}
