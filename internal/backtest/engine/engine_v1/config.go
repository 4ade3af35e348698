package engine

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/helios-lab/helios-trading/pkg/errors"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

// BacktestConfig holds every tunable of a simulation run. Values are
// validated at initialization; a run never starts from an invalid config.
type BacktestConfig struct {
	// InitialCapital is the starting cash balance.
	InitialCapital float64 `json:"initial_capital" jsonschema:"required,description=Starting cash balance" validate:"gt=0"                yaml:"initial_capital"`
	// FeeRate is the proportional fee charged on every fill.
	FeeRate float64 `json:"fee_rate"        jsonschema:"description=Proportional fee per fill"          validate:"gte=0,lt=1"          yaml:"fee_rate"`

	// PositionFraction is the fraction of portfolio value committed per
	// entry in a trending regime; ChoppyPositionFraction applies in a
	// choppy regime.
	PositionFraction       float64 `json:"position_fraction"        jsonschema:"description=Position size fraction in trending regime" validate:"gt=0,lte=1" yaml:"position_fraction"`
	ChoppyPositionFraction float64 `json:"choppy_position_fraction" jsonschema:"description=Position size fraction in choppy regime"   validate:"gt=0,lte=1" yaml:"choppy_position_fraction"`

	// StopLossATR is the base ATR multiple for the stop-loss;
	// ChoppyStopTightening scales it down in a choppy regime.
	StopLossATR         float64 `json:"stop_loss_atr"         jsonschema:"description=Base stop-loss ATR multiple"            validate:"gt=0"       yaml:"stop_loss_atr"`
	ChoppyStopTightening float64 `json:"choppy_stop_tightening" jsonschema:"description=Stop multiple scale in choppy regime" validate:"gt=0,lte=1" yaml:"choppy_stop_tightening"`

	// Take-profit ATR multiples by trend state.
	TakeProfitATRUptrend      float64 `json:"take_profit_atr_uptrend"      jsonschema:"description=Take-profit ATR multiple in an uptrend"      validate:"gt=0" yaml:"take_profit_atr_uptrend"`
	TakeProfitATRNonTrend     float64 `json:"take_profit_atr_non_trend"    jsonschema:"description=Take-profit ATR multiple outside an uptrend" validate:"gt=0" yaml:"take_profit_atr_non_trend"`
	TakeProfitATRIntermediate float64 `json:"take_profit_atr_intermediate" jsonschema:"description=Take-profit ATR multiple between trends"     validate:"gt=0" yaml:"take_profit_atr_intermediate"`

	// TrailingStopPercent is the allowed drawdown from the peak close
	// since entry before the trailing stop fires.
	TrailingStopPercent float64 `json:"trailing_stop_percent" jsonschema:"description=Trailing stop drawdown from peak" validate:"gt=0,lt=1" yaml:"trailing_stop_percent"`

	// Cooldown lengths, in bars, applied after an exit.
	CooldownWinBars  int `json:"cooldown_win_bars"  jsonschema:"description=Cooldown bars after a non-losing exit" validate:"gte=0" yaml:"cooldown_win_bars"`
	CooldownLossBars int `json:"cooldown_loss_bars" jsonschema:"description=Cooldown bars after a losing exit"     validate:"gte=0" yaml:"cooldown_loss_bars"`

	// SignalThreshold is the entry probability a bar must strictly exceed
	// to carry an entry signal.
	SignalThreshold float64 `json:"signal_threshold" jsonschema:"description=Entry probability threshold" validate:"gte=0,lte=1" yaml:"signal_threshold"`

	// AnnualizationFactor scales the per-bar Sharpe ratio to an annual
	// figure; 252 corresponds to daily bars.
	AnnualizationFactor float64 `json:"annualization_factor" jsonschema:"description=Sharpe annualization factor" validate:"gt=0" yaml:"annualization_factor"`

	// BarInterval is the duration of one bar, used to express holding
	// periods in bar units.
	BarInterval time.Duration `json:"bar_interval" jsonschema:"description=Duration of one bar (e.g. 4h)" validate:"gt=0" yaml:"bar_interval"`

	// EnrichBars controls whether the engine computes indicators and
	// signals itself. Disable it when the feed already carries them.
	EnrichBars bool `json:"enrich_bars" jsonschema:"description=Compute indicators and signals from raw bars" yaml:"enrich_bars"`

	// StartTime and EndTime optionally restrict the simulated window.
	StartTime optional.Option[time.Time] `json:"start_time,omitempty" jsonschema:"description=Inclusive lower bound of the simulated window" yaml:"start_time"`
	EndTime   optional.Option[time.Time] `json:"end_time,omitempty"   jsonschema:"description=Inclusive upper bound of the simulated window" yaml:"end_time"`
}

// rawBacktestConfig mirrors BacktestConfig with YAML-friendly field types.
type rawBacktestConfig struct {
	InitialCapital            float64 `yaml:"initial_capital"`
	FeeRate                   float64 `yaml:"fee_rate"`
	PositionFraction          float64 `yaml:"position_fraction"`
	ChoppyPositionFraction    float64 `yaml:"choppy_position_fraction"`
	StopLossATR               float64 `yaml:"stop_loss_atr"`
	ChoppyStopTightening      float64 `yaml:"choppy_stop_tightening"`
	TakeProfitATRUptrend      float64 `yaml:"take_profit_atr_uptrend"`
	TakeProfitATRNonTrend     float64 `yaml:"take_profit_atr_non_trend"`
	TakeProfitATRIntermediate float64 `yaml:"take_profit_atr_intermediate"`
	TrailingStopPercent       float64 `yaml:"trailing_stop_percent"`
	CooldownWinBars           int     `yaml:"cooldown_win_bars"`
	CooldownLossBars          int     `yaml:"cooldown_loss_bars"`
	SignalThreshold           float64 `yaml:"signal_threshold"`
	AnnualizationFactor       float64 `yaml:"annualization_factor"`
	BarInterval               string  `yaml:"bar_interval"`
	EnrichBars                *bool   `yaml:"enrich_bars"`
	StartTime                 *string `yaml:"start_time"`
	EndTime                   *string `yaml:"end_time"`
}

// UnmarshalYAML decodes the config, parsing bar_interval as a Go duration
// string and the optional start/end times as RFC 3339 timestamps.
func (c *BacktestConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw rawBacktestConfig
	if err := value.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	c.InitialCapital = raw.InitialCapital
	c.FeeRate = raw.FeeRate
	c.PositionFraction = raw.PositionFraction
	c.ChoppyPositionFraction = raw.ChoppyPositionFraction
	c.StopLossATR = raw.StopLossATR
	c.ChoppyStopTightening = raw.ChoppyStopTightening
	c.TakeProfitATRUptrend = raw.TakeProfitATRUptrend
	c.TakeProfitATRNonTrend = raw.TakeProfitATRNonTrend
	c.TakeProfitATRIntermediate = raw.TakeProfitATRIntermediate
	c.TrailingStopPercent = raw.TrailingStopPercent
	c.CooldownWinBars = raw.CooldownWinBars
	c.CooldownLossBars = raw.CooldownLossBars
	c.SignalThreshold = raw.SignalThreshold
	c.AnnualizationFactor = raw.AnnualizationFactor

	c.EnrichBars = true
	if raw.EnrichBars != nil {
		c.EnrichBars = *raw.EnrichBars
	}

	if raw.BarInterval != "" {
		interval, err := time.ParseDuration(raw.BarInterval)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
				"invalid bar_interval %q", raw.BarInterval)
		}

		c.BarInterval = interval
	}

	c.StartTime = optional.None[time.Time]()
	if raw.StartTime != nil {
		t, err := time.Parse(time.RFC3339, *raw.StartTime)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
				"invalid start_time %q", *raw.StartTime)
		}

		c.StartTime = optional.Some(t)
	}

	c.EndTime = optional.None[time.Time]()
	if raw.EndTime != nil {
		t, err := time.Parse(time.RFC3339, *raw.EndTime)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
				"invalid end_time %q", *raw.EndTime)
		}

		c.EndTime = optional.Some(t)
	}

	return nil
}

// Validate checks every field constraint and the window ordering.
func (c *BacktestConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	return nil
}

// ParseConfig decodes and validates a YAML config document.
func ParseConfig(document string) (BacktestConfig, error) {
	var config BacktestConfig
	if err := yaml.Unmarshal([]byte(document), &config); err != nil {
		return BacktestConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration,
			"failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return BacktestConfig{}, err
	}

	return config, nil
}

// DefaultConfig returns the production defaults.
func DefaultConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital:            10000,
		FeeRate:                   0.001,
		PositionFraction:          0.70,
		ChoppyPositionFraction:    0.50,
		StopLossATR:               1.0,
		ChoppyStopTightening:      0.75,
		TakeProfitATRUptrend:      5.0,
		TakeProfitATRNonTrend:     3.0,
		TakeProfitATRIntermediate: 4.0,
		TrailingStopPercent:       0.03,
		CooldownWinBars:           2,
		CooldownLossBars:          4,
		SignalThreshold:           0.65,
		AnnualizationFactor:       252,
		BarInterval:               4 * time.Hour,
		EnrichBars:                true,
	}
}

// GenerateSchema returns the JSON schema describing BacktestConfig.
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&BacktestConfig{})
}

// GenerateSchemaJSON returns the config schema as indented JSON.
func GenerateSchemaJSON() (string, error) {
	schema := GenerateSchema()

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal schema", err)
	}

	return string(data), nil
}
