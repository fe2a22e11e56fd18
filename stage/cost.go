package stage

import (
	"math"
	"sort"
)

// BOMLine is one component position in a bill of materials.
type BOMLine struct {
	PartNumber string  `json:"part_number"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// BOMEstimate is the costed bill of materials at a production volume.
type BOMEstimate struct {
	Volume    int          `json:"volume"`
	Currency  string       `json:"currency"`
	Lines     []costedLine `json:"components"`
	TotalCost float64      `json:"total_cost"`
}

type costedLine struct {
	PartNumber      string  `json:"part_number"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountedPrice float64 `json:"discounted_price"`
	LineCost        float64 `json:"line_cost"`
}

// CostEstimator prices a bill of materials with volume discount tiers.
type CostEstimator struct {
	// volumeDiscounts maps a volume threshold to the price factor applied
	// at or above it.
	volumeDiscounts map[int]float64
}

// NewCostEstimator returns an estimator with the standard discount tiers.
func NewCostEstimator() *CostEstimator {
	return &CostEstimator{
		volumeDiscounts: map[int]float64{
			100:    1.0,
			1000:   0.75,
			10000:  0.55,
			100000: 0.40,
		},
	}
}

// Estimate prices the BOM at the given volume. Currency follows the region
// convention: EUR for EU sourcing, USD otherwise.
func (e *CostEstimator) Estimate(lines []BOMLine, volume int, region string) BOMEstimate {
	currency := "USD"
	if region == "EU" {
		currency = "EUR"
	}

	est := BOMEstimate{Volume: volume, Currency: currency}
	factor := e.discountFactor(volume)

	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		discounted := round4(line.UnitPrice * factor)
		lineCost := round4(discounted * float64(qty))
		est.Lines = append(est.Lines, costedLine{
			PartNumber:      line.PartNumber,
			Quantity:        qty,
			UnitPrice:       round4(line.UnitPrice),
			DiscountedPrice: discounted,
			LineCost:        lineCost,
		})
		est.TotalCost += lineCost
	}
	est.TotalCost = round2(est.TotalCost)

	return est
}

// discountFactor returns the factor of the highest tier the volume reaches.
func (e *CostEstimator) discountFactor(volume int) float64 {
	thresholds := make([]int, 0, len(e.volumeDiscounts))
	for t := range e.volumeDiscounts {
		thresholds = append(thresholds, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(thresholds)))
	for _, t := range thresholds {
		if volume >= t {
			return e.volumeDiscounts[t]
		}
	}
	return 1.0
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
