package config

import (
	"os"
	"strconv"
	"time"
)

// SettlementConfig carries the tunables of the settlement core. The
// distribution percentages themselves are business constants and live with
// the engine; only operational knobs are configurable.
type SettlementConfig struct {
	Currency             string
	RiderFee             int64 // minor units, fixed per order
	SystemActor          string
	EscalationInterval   time.Duration
	FineSweepInterval    time.Duration
	FirstEscalationAfter time.Duration
	FinalEscalationAfter time.Duration
	FineChargeAfter      time.Duration
	ScanBatchSize        int
}

func LoadSettlementConfig() *SettlementConfig {
	return &SettlementConfig{
		Currency:             getEnv("SETTLEMENT_CURRENCY", "PKR"),
		RiderFee:             getEnvAsInt64("SETTLEMENT_RIDER_FEE", 50),
		SystemActor:          getEnv("SETTLEMENT_SYSTEM_ACTOR", "settlement-core"),
		EscalationInterval:   getEnvAsDuration("ESCALATION_SCAN_INTERVAL", 1*time.Hour),
		FineSweepInterval:    getEnvAsDuration("FINE_SWEEP_INTERVAL", 30*time.Minute),
		FirstEscalationAfter: getEnvAsDuration("ESCALATION_FIRST_AFTER", 6*time.Hour),
		FinalEscalationAfter: getEnvAsDuration("ESCALATION_FINAL_AFTER", 12*time.Hour),
		FineChargeAfter:      getEnvAsDuration("FINE_CHARGE_AFTER", 24*time.Hour),
		ScanBatchSize:        getEnvAsInt("ESCALATION_SCAN_BATCH", 200),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
