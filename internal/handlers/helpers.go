package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// writeJSON сериализует тело ответа со статусом
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// parseAmount разбирает денежную сумму из строки, пустая строка — ноль
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// queryInt читает целочисленный query-параметр с дефолтом
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}

// actorFromContext извлекает id оператора для аудита, nil для системных
// и неаутентифицированных вызовов
func actorFromContext(ctx context.Context) *int64 {
	if userID, ok := GetUserID(ctx); ok {
		return &userID
	}
	return nil
}
