package inventory

import (
	"github.com/shopspring/decimal"
)

// RoundDiv divides num by den and rounds to the nearest integer, ties away
// from zero. A zero denominator yields 0.
func RoundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	n, d := decimal.NewFromInt(num), decimal.NewFromInt(den)
	// q is truncated toward zero and r carries the sign of num
	q, r := n.QuoRem(d, 0)
	if r.Abs().Mul(decimal.NewFromInt(2)).Cmp(d.Abs()) >= 0 {
		q = q.Add(decimal.NewFromInt(int64(n.Sign() * d.Sign())))
	}
	return q.IntPart()
}

// PurchaseAverage recomputes the average unit cost from purchase history:
// round(Σ total / Σ quantity) over purchase-typed movements only. Any other
// movement type in the slice is ignored. Returns 0 when no quantity has been
// purchased.
func PurchaseAverage(movements []Movement) int64 {
	var qty, total int64
	for _, m := range movements {
		if m.MovementType != MovementTypePurchase {
			continue
		}
		qty += m.Quantity
		total += m.TotalCostCents
	}
	if qty <= 0 {
		return 0
	}
	return RoundDiv(total, qty)
}

// WeightedAverage blends addQty units at addUnit into an existing position
// of oldQty units at oldAvg. Returns 0 when the resulting quantity is not
// positive.
func WeightedAverage(oldQty, oldAvg, addQty, addUnit int64) int64 {
	newQty := oldQty + addQty
	if newQty <= 0 {
		return 0
	}
	return RoundDiv(oldQty*oldAvg+addQty*addUnit, newQty)
}

// RemoveFromAverage backs removedTotal cents for removedQty units out of an
// average. This is an approximation: the result ignores the order in which
// stock was received and consumed. Returns 0 when nothing remains.
func RemoveFromAverage(oldQty, oldAvg, removedQty, removedTotal int64) int64 {
	newQty := oldQty - removedQty
	if newQty <= 0 {
		return 0
	}
	value := oldQty*oldAvg - removedTotal
	if value < 0 {
		value = 0
	}
	return RoundDiv(value, newQty)
}

// UnitCost derives a per-unit cost from a total
func UnitCost(totalCents, quantity int64) int64 {
	if quantity <= 0 {
		return 0
	}
	return RoundDiv(totalCents, quantity)
}
