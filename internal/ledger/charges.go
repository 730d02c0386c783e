package ledger

import (
	"go-pos-ledger/internal/models"
)

// EvaluateCharges runs the enabled charge rules against a cart subtotal and
// returns the adjustments to freeze into the transaction. Rules are evaluated
// once, at checkout time; the resulting charges are never re-derived.
func EvaluateCharges(rules []models.ChargeRule, subtotal float64, customerID string) []models.AppliedCharge {
	var applied []models.AppliedCharge

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		switch rule.Trigger {
		case models.TriggerAlways:
			// always applies
		case models.TriggerAmountThreshold:
			if subtotal < rule.Threshold {
				continue
			}
		case models.TriggerCustomerAssigned:
			if customerID == "" {
				continue
			}
		default:
			continue
		}

		amount := rule.Value
		if rule.Type == "percent" {
			amount = Round2(subtotal * rule.Value / 100)
		}

		applied = append(applied, models.AppliedCharge{
			Name:       rule.Name,
			Amount:     amount,
			IsDiscount: rule.IsDiscount,
		})
	}

	return applied
}

// ChargeTotal computes the final transaction total: subtotal plus net signed
// charges, floored at zero. Fees add, discounts subtract.
func ChargeTotal(subtotal float64, charges []models.AppliedCharge) float64 {
	total := subtotal
	for _, c := range charges {
		if c.IsDiscount {
			total -= c.Amount
		} else {
			total += c.Amount
		}
	}
	if total < 0 {
		return 0
	}
	return total
}
