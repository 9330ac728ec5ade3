// Package pricing holds the money math shared by checkout and settlement.
// Amounts are integer paise; fractional results round half away from zero.
package pricing

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is the minimal priced view of a cart or order line.
type Line struct {
	UnitPricePaise     int64
	DiscountPricePaise *int64
	Quantity           int
}

// EffectivePrice returns the discount price when present, otherwise the unit price.
func EffectivePrice(l Line) int64 {
	if l.DiscountPricePaise != nil {
		return *l.DiscountPricePaise
	}
	return l.UnitPricePaise
}

// LineTotal returns effective price times quantity. Non-positive quantities price at zero.
func LineTotal(l Line) int64 {
	if l.Quantity <= 0 {
		return 0
	}
	return EffectivePrice(l) * int64(l.Quantity)
}

// Subtotal sums LineTotal across lines.
func Subtotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += LineTotal(l)
	}
	return total
}

// ItemCount sums quantities across lines.
func ItemCount(lines []Line) int {
	count := 0
	for _, l := range lines {
		if l.Quantity > 0 {
			count += l.Quantity
		}
	}
	return count
}

// ApplyRate multiplies amount by rate and rounds to whole paise.
func ApplyRate(amountPaise int64, rate decimal.Decimal) int64 {
	if amountPaise == 0 || rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(amountPaise).Mul(rate).Round(0).IntPart()
}

// Tax returns the tax owed on subtotal at rate.
func Tax(subtotalPaise int64, rate decimal.Decimal) int64 {
	return ApplyRate(subtotalPaise, rate)
}

// Commission returns the platform share of a vendor subtotal.
func Commission(subtotalPaise int64, rate decimal.Decimal) int64 {
	return ApplyRate(subtotalPaise, rate)
}

// VendorEarning is the subtotal net of commission, never negative.
func VendorEarning(subtotalPaise int64, rate decimal.Decimal) int64 {
	earning := subtotalPaise - Commission(subtotalPaise, rate)
	if earning < 0 {
		return 0
	}
	return earning
}

// BasisPoints applies a bps rate (10000 = 100%).
func BasisPoints(amountPaise, bps int64) int64 {
	if bps <= 0 {
		return 0
	}
	return ApplyRate(amountPaise, decimal.New(bps, -4))
}

// FeePolicy prices delivery by distance.
type FeePolicy struct {
	BasePaise  int64
	PerKmPaise int64
}

// DeliveryFee charges the base fee plus the per-km rate for every started kilometre.
func (p FeePolicy) DeliveryFee(distanceKm float64) int64 {
	if distanceKm <= 0 {
		return p.BasePaise
	}
	return p.BasePaise + p.PerKmPaise*int64(math.Ceil(distanceKm))
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RoundKm rounds a distance to one decimal place.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// FeeQuote is a delivery fee estimate for one vendor leg.
type FeeQuote struct {
	FeePaise   int64
	DistanceKm float64
}

// FeeLookup maps vendor ids to their delivery quote. A vendor missing from
// the lookup is priced with the fallback quote.
type FeeLookup map[uuid.UUID]FeeQuote
