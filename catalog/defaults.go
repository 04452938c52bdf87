package catalog

// Prices including VAT in EUR
var defaultPrices = map[Capacity]float64{
	3:  12900,
	4:  16900,
	5:  17900,
	6:  20900,
	7:  22900,
	8:  23900,
	9:  25900,
	10: 27900,
	12: 29900,
}

// TAEG in percent per number of monthly installments
var defaultRates = map[Term]float64{
	72:  6.0603,
	84:  5.9547,
	96:  5.876,
	108: 5.8142,
	120: 5.7656,
	132: 5.7247,
	144: 5.6915,
	156: 5.6638,
	168: 5.639,
	180: 5.618,
}

func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultPrices)
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultRateTable() RateTable {
	r, err := NewRateTable(defaultRates)
	if err != nil {
		panic(err)
	}
	return r
}
