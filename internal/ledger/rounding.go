package ledger

import "math"

// epsilon is the machine epsilon of a float64 (2^-52). Nudging a value by it
// before rounding counteracts binary representation error, so 0.615 rounds to
// 0.62 instead of landing on 0.61499999... and rounding down.
const epsilon = 2.220446049250313e-16

// Round2 rounds a currency or stock value to 2 decimal places, half-up.
// Every value written back to ledger state goes through this: stock
// decrements and reversals, balance updates, spend updates.
func Round2(v float64) float64 {
	return math.Floor((v+epsilon)*100+0.5) / 100
}
