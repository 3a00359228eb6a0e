package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable parameter for the bot. Values come from the
// environment (optionally seeded from a .env file); Validate surfaces the
// first out-of-range field before any trading starts.
type Config struct {
	// Market & data
	Market          string        `envconfig:"MARKET" default:"ETH-USD"`
	Timeframe       string        `envconfig:"TIMEFRAME" default:"1MIN"`
	UpdateInterval  time.Duration `envconfig:"UPDATE_INTERVAL" default:"60s"`
	LookbackMinutes int           `envconfig:"LOOKBACK_MINUTES" default:"120"`
	WarmupCandles   int           `envconfig:"WARMUP_CANDLES" default:"100"`

	// Strategy thresholds
	VolumeFactor     float64 `envconfig:"VOLUME_FACTOR" default:"2.0"`
	ResistancePeriod int     `envconfig:"RESISTANCE_PERIOD" default:"24"`
	VolumeLookback   int     `envconfig:"VOLUME_LOOKBACK" default:"0"` // 0 = whole window
	RiskRewardRatio  float64 `envconfig:"RISK_REWARD_RATIO" default:"3.0"`

	// Optional goti-based trend confirmation on top of the breakout rule.
	TrendConfirmation bool `envconfig:"TREND_CONFIRMATION" default:"false"`
	ATSEMAPeriod      int  `envconfig:"ATS_EMA_PERIOD" default:"5"`

	// Risk limits
	PositionSizeUSD    float64 `envconfig:"POSITION_SIZE_USD" default:"100"`
	MaxPositionSizeUSD float64 `envconfig:"MAX_POSITION_SIZE_USD" default:"1000"`
	MaxDailyLossUSD    float64 `envconfig:"MAX_DAILY_LOSS_USD" default:"500"`
	MaxDrawdownPercent float64 `envconfig:"MAX_DRAWDOWN_PERCENT" default:"10"`
	MaxRiskPerTrade    float64 `envconfig:"MAX_RISK_PER_TRADE" default:"0.01"`

	// Execution
	SimulationMode     bool          `envconfig:"SIMULATION_MODE" default:"true"`
	CooldownAfterClose time.Duration `envconfig:"COOLDOWN_AFTER_CLOSE" default:"5m"`

	// Collaborators
	APIURL      string `envconfig:"API_URL" default:"https://dydx-testnet.imperator.co/v4"`
	WSURL       string `envconfig:"WS_URL" default:"wss://indexer.v4testnet.dydx.exchange/v4/ws"`
	DataDir     string `envconfig:"DATA_DIR" default:"data"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	Timezone    string `envconfig:"TIMEZONE" default:"UTC"`
}

// Load reads the environment into a Config. A missing .env is not an error;
// production deployments set real environment variables instead.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that all numeric fields are within sensible bounds.
// It returns the first encountered error, allowing the caller to surface a
// clear configuration problem before any trading starts.
func (c *Config) Validate() error {
	if c.Market == "" {
		return errors.New("Market cannot be empty")
	}
	if c.ResistancePeriod < 2 {
		return fmt.Errorf("ResistancePeriod (%d) must be >= 2", c.ResistancePeriod)
	}
	if c.VolumeLookback < 0 {
		return errors.New("VolumeLookback cannot be negative")
	}
	if c.VolumeFactor <= 1 {
		return fmt.Errorf("VolumeFactor (%f) must be > 1", c.VolumeFactor)
	}
	if c.RiskRewardRatio <= 0 {
		return fmt.Errorf("RiskRewardRatio (%f) must be positive", c.RiskRewardRatio)
	}
	if c.PositionSizeUSD <= 0 {
		return fmt.Errorf("PositionSizeUSD (%f) must be positive", c.PositionSizeUSD)
	}
	if c.MaxPositionSizeUSD < c.PositionSizeUSD {
		return fmt.Errorf("MaxPositionSizeUSD (%f) must be >= PositionSizeUSD (%f)",
			c.MaxPositionSizeUSD, c.PositionSizeUSD)
	}
	if c.MaxDailyLossUSD <= 0 {
		return fmt.Errorf("MaxDailyLossUSD (%f) must be positive", c.MaxDailyLossUSD)
	}
	if c.MaxDrawdownPercent <= 0 || c.MaxDrawdownPercent > 100 {
		return fmt.Errorf("MaxDrawdownPercent (%f) must be in (0,100]", c.MaxDrawdownPercent)
	}
	if c.MaxRiskPerTrade <= 0 || c.MaxRiskPerTrade > 0.5 {
		return fmt.Errorf("MaxRiskPerTrade (%f) must be >0 and <=0.5", c.MaxRiskPerTrade)
	}
	if c.LookbackMinutes <= 0 {
		return errors.New("LookbackMinutes must be positive")
	}
	if c.UpdateInterval <= 0 {
		return errors.New("UpdateInterval must be positive")
	}
	if c.ATSEMAPeriod <= 0 {
		return errors.New("ATSEMAPeriod must be positive")
	}
	if c.WarmupCandles < c.ResistancePeriod {
		return fmt.Errorf("WarmupCandles (%d) must cover ResistancePeriod (%d)",
			c.WarmupCandles, c.ResistancePeriod)
	}
	return nil
}
