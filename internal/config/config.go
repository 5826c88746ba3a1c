package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config содержит конфигурацию приложения
type Config struct {
	RunAddress  string // Адрес и порт запуска сервиса
	DatabaseURI string // URI подключения к БД
	RedisAddr   string // Адрес Redis (duplicate guard и блокировки сверки)
	JWTSecret   string // Секретный ключ для JWT
	JWTTokenTTL time.Duration
	LogLevel    string

	// Политика ревью и cut-off
	ReviewThreshold decimal.Decimal // Заказы строго дороже проходят ручное ревью
	CutoffTime      string          // "HH:mm" (24ч)
	CutoffTimezone  string          // IANA id, напр. "America/New_York"

	// Комиссии процессора и резервы
	FeePercent           decimal.Decimal // Процент комиссии, напр. 0.029
	FeeFixed             decimal.Decimal // Фиксированная часть, напр. 0.30
	RefundReservePercent decimal.Decimal
	PlatformCostPerOrder decimal.Decimal
	ShippingInsurance    decimal.Decimal
	TransactionCost      decimal.Decimal

	// Ежедневная сверка
	ReconciliationTime     string // "HH:mm"
	ReconciliationTimezone string

	// Платежный процессор (возвраты)
	ProcessorBaseURL string
	ProcessorAPIKey  string

	// Окно защиты от дублей
	DuplicateWindow time.Duration

	// Валидация
	MinPasswordLength int
}

// Load загружает конфигурацию из .env, переменных окружения и флагов.
// Приоритет: env переменные > флаги > дефолтные значения
func Load() (*Config, error) {
	// .env не обязателен, ошибка загрузки игнорируется
	_ = godotenv.Load()

	cfg := &Config{
		JWTTokenTTL:            24 * time.Hour,
		LogLevel:               "info",
		ReviewThreshold:        decimal.NewFromInt(500),
		CutoffTime:             "14:00",
		CutoffTimezone:         "America/New_York",
		FeePercent:             decimal.RequireFromString("0.029"),
		FeeFixed:               decimal.RequireFromString("0.30"),
		RefundReservePercent:   decimal.RequireFromString("0.02"),
		PlatformCostPerOrder:   decimal.Zero,
		ShippingInsurance:      decimal.Zero,
		TransactionCost:        decimal.Zero,
		ReconciliationTime:     "23:00",
		ReconciliationTimezone: "America/New_York",
		DuplicateWindow:        24 * time.Hour,
		MinPasswordLength:      6,
	}

	flag.StringVar(&cfg.RunAddress, "a", ":8080", "address and port to run server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddr, "r", "localhost:6379", "redis address")
	flag.Parse()

	// Переменные окружения имеют приоритет над флагами
	if envRunAddr, ok := os.LookupEnv("RUN_ADDRESS"); ok {
		cfg.RunAddress = envRunAddr
	}

	if envDBURI, ok := os.LookupEnv("DATABASE_URI"); ok {
		cfg.DatabaseURI = envDBURI
	}

	if envRedisAddr, ok := os.LookupEnv("REDIS_ADDRESS"); ok {
		cfg.RedisAddr = envRedisAddr
	}

	// JWT секрет только из env, не из флагов
	if envJWTSecret, ok := os.LookupEnv("JWT_SECRET"); ok {
		cfg.JWTSecret = envJWTSecret
	} else {
		cfg.JWTSecret = "default-secret-key-change-in-production"
	}

	if envLogLevel, ok := os.LookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = envLogLevel
	}

	if envThreshold, ok := os.LookupEnv("REVIEW_THRESHOLD"); ok {
		if threshold, err := decimal.NewFromString(envThreshold); err == nil && !threshold.IsNegative() {
			cfg.ReviewThreshold = threshold
		}
	}

	if envCutoffTime, ok := os.LookupEnv("CUTOFF_TIME"); ok {
		cfg.CutoffTime = envCutoffTime
	}

	if envCutoffTZ, ok := os.LookupEnv("CUTOFF_TIMEZONE"); ok {
		cfg.CutoffTimezone = envCutoffTZ
	}

	applyDecimalEnv("FEE_PERCENT", &cfg.FeePercent)
	applyDecimalEnv("FEE_FIXED", &cfg.FeeFixed)
	applyDecimalEnv("REFUND_RESERVE_PERCENT", &cfg.RefundReservePercent)
	applyDecimalEnv("PLATFORM_COST_PER_ORDER", &cfg.PlatformCostPerOrder)
	applyDecimalEnv("SHIPPING_INSURANCE", &cfg.ShippingInsurance)
	applyDecimalEnv("TRANSACTION_COST", &cfg.TransactionCost)

	if envReconTime, ok := os.LookupEnv("RECONCILIATION_TIME"); ok {
		cfg.ReconciliationTime = envReconTime
	}

	if envReconTZ, ok := os.LookupEnv("RECONCILIATION_TIMEZONE"); ok {
		cfg.ReconciliationTimezone = envReconTZ
	}

	if envProcessorURL, ok := os.LookupEnv("PROCESSOR_BASE_URL"); ok {
		cfg.ProcessorBaseURL = envProcessorURL
	}

	if envProcessorKey, ok := os.LookupEnv("PROCESSOR_API_KEY"); ok {
		cfg.ProcessorAPIKey = envProcessorKey
	}

	if envWindow, ok := os.LookupEnv("DUPLICATE_WINDOW"); ok {
		if window, err := time.ParseDuration(envWindow); err == nil && window > 0 {
			cfg.DuplicateWindow = window
		}
	}

	if envMinLen, ok := os.LookupEnv("MIN_PASSWORD_LENGTH"); ok {
		if minLen, err := strconv.Atoi(envMinLen); err == nil && minLen > 0 {
			cfg.MinPasswordLength = minLen
		}
	}

	// Валидация обязательных параметров
	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI is required (use -d flag or DATABASE_URI env)")
	}

	return cfg, nil
}

// applyDecimalEnv перезаписывает значение из env, если оно корректно парсится
func applyDecimalEnv(name string, dst *decimal.Decimal) {
	value, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.IsNegative() {
		return
	}
	*dst = parsed
}
