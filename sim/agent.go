package sim

// Agent is anything that lives on the simulation clock. Tick runs at the
// start of every period before any exchange round, Tock after the last
// round. Agents are ticked in registration order.
type Agent interface {
	ID() int
	Prototype() string
	Kind() string
	Tick()
	Tock()
}

// Trader is an agent that participates in exchange rounds. The exchange
// calls the methods in a fixed order per commodity round: Requests, Bids,
// AdjustPrefs (each requester over its own requests), then ExecuteTrades
// on suppliers and AcceptDeliveries on requesters.
type Trader interface {
	Agent

	// Requests returns the trader's open requests. Called once per
	// commodity round; requests for other commodities are ignored in
	// that round, so implementations just report current needs.
	Requests() []*Request

	// Bids returns the trader's bids against the given requests, nil or
	// empty when it has nothing to offer.
	Bids(reqs []*Request) *BidPortfolio

	// AdjustPrefs reranks the bids competing for the trader's own
	// requests. A preference below zero rejects the bid outright.
	AdjustPrefs(prefs PrefMap)

	// ExecuteTrades produces one material per matched trade, in order.
	ExecuteTrades(trades []Trade) ([]*Material, error)

	// AcceptDeliveries takes ownership of the delivered materials.
	AcceptDeliveries(ds []Delivery) error
}
