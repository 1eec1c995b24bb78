package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// number renders a decimal as a bare JSON number with full precision.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

type statsSummaryJSON struct {
	Symbol string `json:"symbol"`
	Oldest number `json:"oldest"`
	Newest number `json:"newest"`
	Min    number `json:"min"`
	Max    number `json:"max"`
}

// MarshalJSON encodes the summary with decimal values as JSON numbers.
func (s StatsSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsSummaryJSON{
		Symbol: s.Symbol,
		Oldest: number(s.Oldest),
		Newest: number(s.Newest),
		Min:    number(s.Min),
		Max:    number(s.Max),
	})
}

// UnmarshalJSON accepts decimal values as JSON numbers or strings.
func (s *StatsSummary) UnmarshalJSON(data []byte) error {
	var v statsSummaryJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = StatsSummary{
		Symbol: v.Symbol,
		Oldest: decimal.Decimal(v.Oldest),
		Newest: decimal.Decimal(v.Newest),
		Min:    decimal.Decimal(v.Min),
		Max:    decimal.Decimal(v.Max),
	}
	return nil
}

type normalizedScoreJSON struct {
	Symbol          string `json:"symbol"`
	NormalizedPrice number `json:"normalizedPrice"`
}

// MarshalJSON encodes the score as {symbol, normalizedPrice}.
func (n NormalizedScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(normalizedScoreJSON{
		Symbol:          n.Symbol,
		NormalizedPrice: number(n.Value),
	})
}

// UnmarshalJSON decodes {symbol, normalizedPrice}.
func (n *NormalizedScore) UnmarshalJSON(data []byte) error {
	var v normalizedScoreJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NormalizedScore{Symbol: v.Symbol, Value: decimal.Decimal(v.NormalizedPrice)}
	return nil
}
