package types

import "time"

// CacheRecord is the persisted CAGR value for one instrument.
type CacheRecord struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // unix seconds
	Value     float64 `json:"value"`     // percent
}

// NewCacheRecord stamps a record with the given time.
func NewCacheRecord(symbol string, value float64, at time.Time) CacheRecord {
	return CacheRecord{Symbol: symbol, Timestamp: at.Unix(), Value: value}
}

// ComputedAt returns the record timestamp as a time.Time.
func (r CacheRecord) ComputedAt() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// Valid reports whether the record can be served for key without refetching.
// A record stored under one key but carrying another symbol is never valid.
func (r CacheRecord) Valid(key string, now time.Time, window time.Duration) bool {
	if r.Symbol != key {
		return false
	}
	return now.Sub(r.ComputedAt()) < window
}

// PricePoint is one dated observation of an instrument.
type PricePoint struct {
	Date        time.Time `json:"date"`
	Close       float64   `json:"close"`
	AdjClose    float64   `json:"adj_close,omitempty"`
	HasAdjClose bool      `json:"has_adj_close"`
}

// Series is a chronologically ordered price history.
type Series struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

func (s Series) Empty() bool {
	return len(s.Points) == 0
}

// Index associates a display name with a lookup symbol.
type Index struct {
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// IndexSpec is an ordered list of indices; order is the display order.
type IndexSpec []Index
