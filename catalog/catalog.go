package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrInvalidCapacity = errors.New("capacity not in catalog")
	ErrUnsupportedTerm = errors.New("term not in rate table")
)

// Capacity is an installed peak power in kW.
type Capacity int

// Term is a loan duration as a number of monthly installments.
type Term int

// Catalog maps an installation capacity to its list price including VAT.
// It is read-only once created.
type Catalog struct {
	prices map[Capacity]float64
}

func NewCatalog(prices map[Capacity]float64) (Catalog, error) {
	if len(prices) == 0 {
		return Catalog{}, errors.New("capacity catalog is empty")
	}
	for c, p := range prices {
		if c <= 0 {
			return Catalog{}, fmt.Errorf("capacity %d kW must be positive", c)
		}
		if p <= 0 {
			return Catalog{}, fmt.Errorf("price %.2f for %d kW must be positive", p, c)
		}
	}
	return Catalog{prices: maps.Clone(prices)}, nil
}

// Capacities returns all capacities in ascending order.
func (c Catalog) Capacities() []Capacity {
	return slices.Sorted(maps.Keys(c.prices))
}

func (c Catalog) Price(capacity Capacity) (float64, error) {
	p, ok := c.prices[capacity]
	if !ok {
		return 0, fmt.Errorf("%d kW: %w", capacity, ErrInvalidCapacity)
	}
	return p, nil
}

func (c Catalog) Contains(capacity Capacity) bool {
	_, ok := c.prices[capacity]
	return ok
}

// RateTable maps a loan term to its annual percentage rate (TAEG) in percent.
type RateTable struct {
	rates map[Term]float64
}

func NewRateTable(rates map[Term]float64) (RateTable, error) {
	if len(rates) == 0 {
		return RateTable{}, errors.New("rate table is empty")
	}
	for t, r := range rates {
		if t <= 0 {
			return RateTable{}, fmt.Errorf("term %d months must be positive", t)
		}
		if r < 0 {
			return RateTable{}, fmt.Errorf("rate %.4f%% for %d months must not be negative", r, t)
		}
	}
	return RateTable{rates: maps.Clone(rates)}, nil
}

// Terms returns all supported terms in ascending order.
func (r RateTable) Terms() []Term {
	return slices.Sorted(maps.Keys(r.rates))
}

func (r RateTable) Rate(term Term) (float64, error) {
	rate, ok := r.rates[term]
	if !ok {
		return 0, fmt.Errorf("%d months: %w", term, ErrUnsupportedTerm)
	}
	return rate, nil
}
