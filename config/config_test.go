package config

import (
	"testing"
	"time"
)

func valid() Config {
	return Config{
		Market:             "ETH-USD",
		Timeframe:          "1MIN",
		UpdateInterval:     time.Minute,
		LookbackMinutes:    120,
		WarmupCandles:      100,
		VolumeFactor:       2.0,
		ResistancePeriod:   24,
		RiskRewardRatio:    3.0,
		ATSEMAPeriod:       5,
		PositionSizeUSD:    100,
		MaxPositionSizeUSD: 1000,
		MaxDailyLossUSD:    500,
		MaxDrawdownPercent: 10,
		MaxRiskPerTrade:    0.01,
	}
}

func TestValidateSuccess(t *testing.T) {
	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateFailsOnBadRisk(t *testing.T) {
	cfg := valid()
	cfg.MaxRiskPerTrade = -0.01
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative MaxRiskPerTrade")
	}
}

func TestValidateFailsOnShortResistancePeriod(t *testing.T) {
	cfg := valid()
	cfg.ResistancePeriod = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for ResistancePeriod < 2")
	}
}

func TestValidateFailsWhenMaxBelowPositionSize(t *testing.T) {
	cfg := valid()
	cfg.MaxPositionSizeUSD = 50
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error when MaxPositionSizeUSD < PositionSizeUSD")
	}
}
