package costs

import (
	"github.com/shopspring/decimal"

	"github.com/decortz/sill-backend/pkg/db/models"
)

// MinSamples is how many odometer readings a life needs before a kilometer
// span can be derived from it.
const MinSamples = 2

// Span returns max-min over the provided odometer readings, or false when the
// readings cannot produce a usable span.
func Span(mileages []int64) (int64, bool) {
	if len(mileages) < MinSamples {
		return 0, false
	}
	min, max := mileages[0], mileages[0]
	for _, m := range mileages[1:] {
		if m < min {
			min = m
		}
		if m > max {
			max = m
		}
	}
	span := max - min
	if span <= 0 {
		return 0, false
	}
	return span, true
}

// PerLifeCost derives the cost per kilometer for one life: the life's price
// divided by the kilometer span of its service records, rounded to 2 decimals.
// Returns nil when the span cannot be derived or the price is missing.
func PerLifeCost(price *decimal.Decimal, mileages []int64) *decimal.Decimal {
	if price == nil || price.Sign() <= 0 {
		return nil
	}
	span, ok := Span(mileages)
	if !ok {
		return nil
	}
	cost := price.Div(decimal.NewFromInt(span)).Round(2)
	return &cost
}

// CumulativeCost derives the all-lives cost per kilometer: the total invested
// across lives divided by the span of every service record the tire has.
func CumulativeCost(totalPrice decimal.Decimal, mileages []int64) *decimal.Decimal {
	if totalPrice.Sign() <= 0 {
		return nil
	}
	span, ok := Span(mileages)
	if !ok {
		return nil
	}
	cost := totalPrice.Div(decimal.NewFromInt(span)).Round(2)
	return &cost
}

// Refresh recomputes every derivable cost figure on the tire in place. Lives
// up to current_life+1 are considered (a freshly approved retread already has
// its next-life price on file). Values that can no longer be derived are
// cleared rather than left stale.
func Refresh(tire *models.Tire, maxLives int, mileagesByLife map[int][]int64) {
	if tire == nil {
		return
	}
	if maxLives <= 0 || maxLives > 4 {
		maxLives = 4
	}

	upTo := tire.CurrentLife + 1
	if upTo > maxLives {
		upTo = maxLives
	}

	var all []int64
	total := decimal.Zero
	for life := 1; life <= upTo; life++ {
		price := tire.PriceForLife(life)
		tire.SetCostPerKmForLife(life, PerLifeCost(price, mileagesByLife[life]))
		if price != nil {
			total = total.Add(*price)
		}
		all = append(all, mileagesByLife[life]...)
	}
	for life := upTo + 1; life <= 4; life++ {
		tire.SetCostPerKmForLife(life, nil)
	}

	tire.CostPerKmTotal = CumulativeCost(total, all)
}
