package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitAmount divides total minor units across weights proportionally.
// Shares are floored and the remainder goes to the last share, so the result
// always sums to total. All-zero weights split evenly.
func SplitAmount(total int64, weights []decimal.Decimal) ([]int64, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weights are empty")
	}
	if total < 0 {
		return nil, fmt.Errorf("total[%d] is negative", total)
	}

	sum := decimal.Zero
	for i, w := range weights {
		if w.IsNegative() {
			return nil, fmt.Errorf("weight[%d] is negative", i)
		}
		sum = sum.Add(w)
	}

	if sum.IsZero() {
		weights = make([]decimal.Decimal, len(weights))
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
		sum = decimal.NewFromInt(int64(len(weights)))
	}

	totalDec := decimal.NewFromInt(total)
	shares := make([]int64, len(weights))

	var allocated int64
	for i := 0; i < len(weights)-1; i++ {
		shares[i] = totalDec.Mul(weights[i]).Div(sum).Floor().IntPart()
		allocated += shares[i]
	}
	shares[len(shares)-1] = total - allocated

	return shares, nil
}
