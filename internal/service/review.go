package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EvaluateReview решает, требуется ли заказу ручное ревью.
// Порог строгий: netAmount, равный порогу, ревью не требует.
// Чистая функция без состояния и побочных эффектов.
func EvaluateReview(netAmount, threshold decimal.Decimal) (bool, string) {
	if netAmount.GreaterThan(threshold) {
		return true, fmt.Sprintf("High-value order exceeds threshold %s", threshold.String())
	}
	return false, ""
}
