package provider

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fields is the raw material adapters hand to Normalize. Only Price is
// required; PreviousClose wins over Change when both are present.
type Fields struct {
	Symbol        string
	Name          string
	Sector        string
	Source        string
	Price         float64
	PreviousClose *float64
	Change        *float64
	Volume        int64
	MarketCap     *float64
	High          *float64
	Low           *float64
	Open          *float64
	ReceivedAt    time.Time
}

// Normalize derives change and change percent from price and previous close
// on two-decimal values, so that Price-Change is exactly the previous close
// that ChangePercent was computed against.
func Normalize(f Fields) (Quote, error) {
	if !finite(f.Price) || f.Price <= 0 {
		return Quote{}, NewError("", ErrNoPrice, "missing or non-positive price", nil)
	}
	price := decimal.NewFromFloat(f.Price).Round(2)

	prev := price
	switch {
	case f.PreviousClose != nil && finite(*f.PreviousClose) && *f.PreviousClose > 0:
		prev = decimal.NewFromFloat(*f.PreviousClose).Round(2)
	case f.Change != nil && finite(*f.Change):
		prev = price.Sub(decimal.NewFromFloat(*f.Change).Round(2))
	}
	if !prev.IsPositive() {
		prev = price
	}

	change := price.Sub(prev)
	pct := decimal.Zero
	if !prev.IsZero() {
		pct = change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	}

	ts := f.ReceivedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	vol := f.Volume
	if vol < 0 {
		vol = 0
	}

	prevF := prev.InexactFloat64()
	return Quote{
		Symbol:        strings.ToUpper(strings.TrimSpace(f.Symbol)),
		Name:          f.Name,
		Price:         price.InexactFloat64(),
		Change:        change.InexactFloat64(),
		ChangePercent: pct.InexactFloat64(),
		Volume:        vol,
		MarketCap:     positive(f.MarketCap),
		Sector:        f.Sector,
		High:          round2Ptr(f.High),
		Low:           round2Ptr(f.Low),
		Open:          round2Ptr(f.Open),
		PreviousClose: &prevF,
		Source:        f.Source,
		ReceivedAt:    ts,
	}, nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round2Ptr(v *float64) *float64 {
	if v == nil || !finite(*v) || *v <= 0 {
		return nil
	}
	r := Round2(*v)
	return &r
}

func positive(v *float64) *float64 {
	if v == nil || !finite(*v) || *v <= 0 {
		return nil
	}
	x := *v
	return &x
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Float returns a pointer to v, for optional quote fields.
func Float(v float64) *float64 { return &v }
