// Package engine runs the value-series analytics pipeline: it normalises a
// strategy's equity curve, computes its metrics and builds the chart series.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/drawdown"
	"github.com/AlgoGators/algosystem/internal/modules/metrics"
	"github.com/AlgoGators/algosystem/internal/modules/performance"
	"github.com/AlgoGators/algosystem/internal/modules/rolling"
	"github.com/AlgoGators/algosystem/internal/modules/series"
)

// DefaultRollingWindow is one trading year of daily bars.
const DefaultRollingWindow = 252

// Config describes one run. Either Series or Data must be set; with Data
// holding several columns, PriceColumn picks the portfolio value.
type Config struct {
	Series         domain.ValueSeries
	Data           *domain.Frame
	PriceColumn    string
	Benchmark      domain.ValueSeries
	Start          *time.Time
	End            *time.Time
	InitialCapital *float64
	Metrics        metrics.Options
	RollingWindow  int
	TopDrawdowns   int
	Log            zerolog.Logger
}

// Plots holds the time series behind the standard charts.
type Plots struct {
	Equity          domain.ValueSeries  `json:"equity" msgpack:"equity"`
	BenchmarkEquity domain.ValueSeries  `json:"benchmark_equity,omitempty" msgpack:"benchmark_equity,omitempty"`
	Drawdown        domain.ReturnSeries `json:"drawdown" msgpack:"drawdown"`
	RollingSharpe   domain.ReturnSeries `json:"rolling_sharpe" msgpack:"rolling_sharpe"`
	MonthlyReturns  domain.ReturnSeries `json:"monthly_returns" msgpack:"monthly_returns"`
}

// Results is the output of Run.
type Results struct {
	Equity         domain.ValueSeries   `json:"equity"`
	InitialCapital float64              `json:"initial_capital"`
	FinalCapital   float64              `json:"final_capital"`
	Returns        float64              `json:"returns"`
	StartDate      time.Time            `json:"start_date"`
	EndDate        time.Time            `json:"end_date"`
	Metrics        domain.MetricsRecord `json:"metrics"`
	Drawdowns      drawdown.Analysis    `json:"drawdowns"`
	Plots          Plots                `json:"plots"`
}

// Engine evaluates one equity curve.
type Engine struct {
	equity    domain.ValueSeries
	benchmark domain.ValueSeries
	cfg       Config
	calc      *metrics.Calculator
	log       zerolog.Logger
}

// New selects and normalises the input series. It fails with ErrInputShape
// when the input is missing or ambiguous and with ErrEmptyRange when the
// date window leaves no data.
func New(cfg Config) (*Engine, error) {
	raw, err := selectSeries(cfg)
	if err != nil {
		return nil, err
	}

	equity, err := series.Normalize(raw, series.Options{
		Start:          cfg.Start,
		End:            cfg.End,
		InitialCapital: cfg.InitialCapital,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to normalize series: %w", err)
	}

	if cfg.RollingWindow <= 0 {
		cfg.RollingWindow = DefaultRollingWindow
	}
	if cfg.Metrics.PeriodsPerYear <= 0 {
		cfg.Metrics.PeriodsPerYear = metrics.DefaultPeriodsPerYear
	}

	log := cfg.Log.With().Str("component", "engine").Logger()
	log.Info().
		Time("start", equity.First().Time).
		Time("end", equity.Last().Time).
		Int("points", len(equity)).
		Msg("Initialized backtest")

	return &Engine{
		equity:    equity,
		benchmark: cfg.Benchmark,
		cfg:       cfg,
		calc:      metrics.NewCalculator(),
		log:       log,
	}, nil
}

func selectSeries(cfg Config) (domain.ValueSeries, error) {
	if cfg.Series != nil {
		return cfg.Series, nil
	}
	if cfg.Data == nil {
		return nil, fmt.Errorf("%w: no input series", domain.ErrInputShape)
	}
	if err := cfg.Data.Validate(); err != nil {
		return nil, err
	}
	if cfg.PriceColumn != "" {
		return cfg.Data.Series(cfg.PriceColumn)
	}
	names := cfg.Data.Names()
	if len(names) != 1 {
		return nil, fmt.Errorf("%w: frame has %d columns; specify a price column", domain.ErrInputShape, len(names))
	}
	return cfg.Data.Series(names[0])
}

// Equity returns the normalised equity curve.
func (e *Engine) Equity() domain.ValueSeries { return e.equity }

// Run computes metrics and chart series.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	e.log.Info().Msg("Starting backtest simulation")
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	equity := e.equity
	initial := equity.First().Value
	final := equity.Last().Value

	e.log.Debug().Msg("Calculating performance metrics")
	rec := e.calc.Compute(equity, e.benchmark, e.cfg.Metrics)
	dd := drawdown.Analyze(equity, e.cfg.TopDrawdowns)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.log.Debug().Msg("Generating performance plots")
	plots := e.plots()

	res := &Results{
		Equity:         equity,
		InitialCapital: initial,
		FinalCapital:   final,
		Returns:        (final - initial) / initial,
		StartDate:      equity.First().Time,
		EndDate:        equity.Last().Time,
		Metrics:        rec,
		Drawdowns:      dd,
		Plots:          plots,
	}

	e.log.Info().
		Float64("returns", res.Returns).
		Float64("sharpe_ratio", rec.Value(domain.KeySharpeRatio)).
		Float64("max_drawdown", rec.Value(domain.KeyMaxDrawdown)).
		Msg("Backtest completed")
	return res, nil
}

func (e *Engine) plots() Plots {
	returns := e.equity.Returns()

	window := e.cfg.RollingWindow
	if window > len(returns) {
		window = len(returns)
	}

	p := Plots{
		Equity:         e.equity,
		Drawdown:       drawdown.Path(e.equity),
		RollingSharpe:  domain.ReturnSeries{},
		MonthlyReturns: performance.MonthlyReturns(returns),
	}
	if window > 0 {
		p.RollingSharpe = rolling.Compute(returns, window, e.cfg.Metrics.PeriodsPerYear).SharpeSeries()
	}

	if len(e.benchmark) > 0 {
		aligned := e.benchmark.ForwardFill(e.equity.Times())
		if len(aligned) > 0 {
			capital := e.equity.First().Value
			rebased, err := series.Normalize(aligned, series.Options{InitialCapital: &capital})
			if err == nil {
				p.BenchmarkEquity = rebased
			}
		}
	}
	return p
}
