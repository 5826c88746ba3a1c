package service

import "github.com/shopspring/decimal"

// FeeEstimator оценивает комиссию платежного процессора.
// Авторитетная комиссия из события процессора всегда предпочтительнее оценки;
// выбор делает вызывающий через EstimateOrReported.
type FeeEstimator struct {
	percent decimal.Decimal // Напр. 0.029 (2.9%)
	fixed   decimal.Decimal // Напр. 0.30 ($0.30)
}

// NewFeeEstimator создает новый FeeEstimator
func NewFeeEstimator(percent, fixed decimal.Decimal) *FeeEstimator {
	return &FeeEstimator{
		percent: percent,
		fixed:   fixed,
	}
}

// Estimate оценивает комиссию по формуле amount*percent + fixed
// с округлением half-up до 2 знаков
func (e *FeeEstimator) Estimate(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(e.percent).Add(e.fixed).Round(2)
}

// EstimateOrReported возвращает комиссию, сообщенную процессором, если она
// известна, иначе оценку по сконфигурированным ставкам
func (e *FeeEstimator) EstimateOrReported(amount decimal.Decimal, reportedMinor *int64) decimal.Decimal {
	if reportedMinor != nil {
		return FromMinorUnits(*reportedMinor)
	}
	return e.Estimate(amount)
}

// FromMinorUnits конвертирует минорные единицы валюты (центы) в decimal
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2).Round(2)
}

// ToMinorUnits конвертирует decimal в минорные единицы валюты (центы)
// с округлением half-up
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
