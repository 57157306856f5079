package entity

// Preference holds one subscriber's routing rules. The monitor only reads these.
type Preference struct {
	RecipientID   string
	MinBuyImpact  int
	MinSellImpact int
	AllowList     map[string]struct{}
	DenyList      map[string]struct{}
}

// Allows reports whether ticker is in the allow list.
func (p Preference) Allows(ticker string) bool {
	_, ok := p.AllowList[ticker]
	return ok
}

// Denies reports whether ticker is in the deny list.
func (p Preference) Denies(ticker string) bool {
	_, ok := p.DenyList[ticker]
	return ok
}

// NewTickerSet builds a set from tickers.
func NewTickerSet(tickers ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		set[t] = struct{}{}
	}
	return set
}
