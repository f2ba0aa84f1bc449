package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/internal/modules/drawdown"
	"github.com/AlgoGators/algosystem/internal/modules/engine"
	"github.com/AlgoGators/algosystem/internal/modules/optimization"
	"github.com/AlgoGators/algosystem/internal/modules/performance"
	"github.com/AlgoGators/algosystem/internal/modules/risk"
	"github.com/AlgoGators/algosystem/internal/modules/rolling"
	"github.com/AlgoGators/algosystem/internal/modules/runs"
	"github.com/AlgoGators/algosystem/internal/modules/sweep"
)

// optimizeTimeout bounds a single optimizer or frontier request.
const optimizeTimeout = 30 * time.Second

type metricsRequest struct {
	Values         domain.ValueSeries `json:"values"`
	Benchmark      domain.ValueSeries `json:"benchmark,omitempty"`
	PeriodsPerYear *int               `json:"periods_per_year,omitempty"`
	Save           bool               `json:"save,omitempty"`
	Name           string             `json:"name,omitempty"`
}

// HandleMetrics handles POST /api/analytics/metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateSeries(req.Values, req.Benchmark); err != nil {
		h.writeError(w, err)
		return
	}

	rec := h.calc.Compute(req.Values, req.Benchmark, h.options(req.PeriodsPerYear))
	data := map[string]interface{}{
		"metrics": rec,
	}

	if req.Save {
		run, err := h.save(r.Context(), req.Name, rec, drawdown.Analyze(req.Values, 0).Episodes)
		if err != nil {
			h.writeError(w, err)
			return
		}
		data["run_id"] = run.ID.String()
	}

	h.writeData(w, http.StatusOK, data)
}

type drawdownsRequest struct {
	Values domain.ValueSeries `json:"values"`
	TopN   int                `json:"top_n,omitempty"`
}

// HandleDrawdowns handles POST /api/analytics/drawdowns
func (h *Handler) HandleDrawdowns(w http.ResponseWriter, r *http.Request) {
	var req drawdownsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateSeries(req.Values, nil); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"analysis": drawdown.Analyze(req.Values, req.TopN),
		"path":     drawdown.Path(req.Values),
	})
}

type rollingRequest struct {
	Values         domain.ValueSeries `json:"values"`
	Window         int                `json:"window"`
	PeriodsPerYear *int               `json:"periods_per_year,omitempty"`
}

// HandleRolling handles POST /api/analytics/rolling
func (h *Handler) HandleRolling(w http.ResponseWriter, r *http.Request) {
	var req rollingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateSeries(req.Values, nil); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Window < 1 {
		h.writeError(w, fmt.Errorf("%w: window must be at least 1, got %d", domain.ErrInputShape, req.Window))
		return
	}

	opts := h.options(req.PeriodsPerYear)
	h.writeData(w, http.StatusOK, rolling.Compute(req.Values.Returns(), req.Window, opts.PeriodsPerYear))
}

type varRequest struct {
	Returns    []float64 `json:"returns"`
	Confidence *float64  `json:"confidence,omitempty"`
	Method     string    `json:"method,omitempty"`
	Seed       *uint64   `json:"seed,omitempty"`
	Samples    int       `json:"samples,omitempty"`
}

// HandleVaR handles POST /api/analytics/risk/var
func (h *Handler) HandleVaR(w http.ResponseWriter, r *http.Request) {
	var req varRequest
	if !h.decode(w, r, &req) {
		return
	}

	method, err := risk.ParseMethod(req.Method)
	if err != nil {
		h.writeError(w, err)
		return
	}

	confidence := h.cfg.VaRConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}
	seed := h.cfg.MonteCarloSeed
	if req.Seed != nil {
		seed = *req.Seed
	}
	samples := h.cfg.MonteCarloSamples
	if req.Samples > 0 {
		samples = req.Samples
	}

	summary, err := risk.NewEngine(samples, seed, h.cfg.Metrics).Summary(req.Returns, confidence, method)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, summary)
}

type stressRequest struct {
	Data           *domain.Frame   `json:"data"`
	PriceColumn    string          `json:"price_column,omitempty"`
	InitialCapital *float64        `json:"initial_capital,omitempty"`
	PeriodsPerYear *int            `json:"periods_per_year,omitempty"`
	Scenarios      []risk.Scenario `json:"scenarios"`
}

// HandleStress handles POST /api/analytics/stress
func (h *Handler) HandleStress(w http.ResponseWriter, r *http.Request) {
	var req stressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Data == nil {
		h.writeError(w, fmt.Errorf("%w: data is required", domain.ErrInputShape))
		return
	}

	opts := h.options(req.PeriodsPerYear)
	builder := risk.SeriesBuilderFunc(func(ctx context.Context, data domain.Frame) (domain.ValueSeries, error) {
		eng, err := engine.New(engine.Config{
			Data:           &data,
			PriceColumn:    req.PriceColumn,
			InitialCapital: req.InitialCapital,
			Metrics:        opts,
			Log:            h.log,
		})
		if err != nil {
			return nil, err
		}
		return eng.Equity(), nil
	})

	// reject input that cannot produce an unshocked curve
	if _, err := builder.Build(r.Context(), *req.Data); err != nil {
		h.writeError(w, err)
		return
	}

	results := risk.NewEngine(h.cfg.MonteCarloSamples, h.cfg.MonteCarloSeed, opts).
		StressTest(r.Context(), builder, *req.Data, req.Scenarios)
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

type portfolioRequest struct {
	Returns      [][]float64 `json:"returns"`
	RiskFreeRate float64     `json:"risk_free_rate,omitempty"`
	NumPoints    int         `json:"num_points,omitempty"`
}

// HandleOptimize handles POST /api/analytics/portfolio/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !h.decode(w, r, &req) {
		return
	}
	R, err := optimization.NewReturnsMatrix(req.Returns)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), optimizeTimeout)
	defer cancel()

	weights, perf, err := optimization.NewOptimizer(optimization.Options{}).OptimizeContext(ctx, R, req.RiskFreeRate)
	if err != nil {
		h.log.Warn().Err(err).Int("assets", len(req.Returns[0])).Msg("Portfolio optimization failed")
		h.writeError(w, err)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"weights":     weights,
		"performance": perf,
	})
}

// HandleFrontier handles POST /api/analytics/portfolio/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !h.decode(w, r, &req) {
		return
	}
	R, err := optimization.NewReturnsMatrix(req.Returns)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), optimizeTimeout)
	defer cancel()

	points, err := optimization.NewOptimizer(optimization.Options{}).EfficientFrontierContext(ctx, R, req.NumPoints)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"points": points,
	})
}

type backtestRequest struct {
	Values         domain.ValueSeries `json:"values"`
	Benchmark      domain.ValueSeries `json:"benchmark,omitempty"`
	Start          *time.Time         `json:"start,omitempty"`
	End            *time.Time         `json:"end,omitempty"`
	InitialCapital *float64           `json:"initial_capital,omitempty"`
	PeriodsPerYear *int               `json:"periods_per_year,omitempty"`
	RollingWindow  int                `json:"rolling_window,omitempty"`
	TopN           int                `json:"top_n,omitempty"`
	Save           bool               `json:"save,omitempty"`
	Name           string             `json:"name,omitempty"`
}

// HandleBacktest handles POST /api/analytics/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if !h.decode(w, r, &req) {
		return
	}

	eng, err := engine.New(engine.Config{
		Series:         req.Values,
		Benchmark:      req.Benchmark,
		Start:          req.Start,
		End:            req.End,
		InitialCapital: req.InitialCapital,
		Metrics:        h.options(req.PeriodsPerYear),
		RollingWindow:  req.RollingWindow,
		TopDrawdowns:   req.TopN,
		Log:            h.log,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	results, err := eng.Run(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := map[string]interface{}{
		"results": results,
	}
	if req.Save {
		run, err := h.save(r.Context(), req.Name, results.Metrics, results.Drawdowns.Episodes)
		if err != nil {
			h.writeError(w, err)
			return
		}
		data["run_id"] = run.ID.String()
	}
	h.writeData(w, http.StatusOK, data)
}

type sweepRequest struct {
	Series         map[string]domain.ValueSeries `json:"series"`
	Benchmark      domain.ValueSeries            `json:"benchmark,omitempty"`
	PeriodsPerYear *int                          `json:"periods_per_year,omitempty"`
}

type sweepEntry struct {
	Name    string               `json:"name"`
	Metrics domain.MetricsRecord `json:"metrics,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// HandleSweep handles POST /api/analytics/sweep
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Series) == 0 {
		h.writeError(w, fmt.Errorf("%w: series must not be empty", domain.ErrInputShape))
		return
	}

	jobs := make([]sweep.Job, 0, len(req.Series))
	for name, values := range req.Series {
		jobs = append(jobs, sweep.Job{Name: name, Values: values, Benchmark: req.Benchmark})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	results := sweep.NewRunner(h.cfg.SweepWorkers, h.options(req.PeriodsPerYear), h.log).Run(r.Context(), jobs)

	out := make([]sweepEntry, len(results))
	for i, res := range results {
		out[i] = sweepEntry{Name: res.Name, Metrics: res.Metrics}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"results": out,
	})
}

type performanceRequest struct {
	Values         domain.ValueSeries `json:"values"`
	PeriodsPerYear *int               `json:"periods_per_year,omitempty"`
}

// HandlePerformance handles POST /api/analytics/performance
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateSeries(req.Values, nil); err != nil {
		h.writeError(w, err)
		return
	}

	returns := req.Values.Returns()
	opts := h.options(req.PeriodsPerYear)
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"stats":   performance.ReturnsStats(returns.Values(), opts.PeriodsPerYear),
		"periods": performance.ByPeriod(returns),
	})
}

type compareRequest struct {
	Strategies     map[string]domain.ValueSeries `json:"strategies"`
	PeriodsPerYear *int                          `json:"periods_per_year,omitempty"`
}

// HandleCompare handles POST /api/analytics/compare
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !h.decode(w, r, &req) {
		return
	}
	if len(req.Strategies) == 0 {
		h.writeError(w, fmt.Errorf("%w: strategies must not be empty", domain.ErrInputShape))
		return
	}
	for name, values := range req.Strategies {
		if err := validateSeries(values, nil); err != nil {
			h.writeError(w, fmt.Errorf("strategy %q: %w", name, err))
			return
		}
	}

	h.writeData(w, http.StatusOK, performance.Compare(req.Strategies, h.options(req.PeriodsPerYear)))
}

// HandleListRuns handles GET /api/analytics/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, errStoreUnavailable)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, fmt.Errorf("%w: invalid limit %q", domain.ErrInputShape, v))
			return
		}
		limit = n
	}

	list, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

// HandleGetRun handles GET /api/analytics/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request, rawID string) {
	if h.store == nil {
		h.writeError(w, errStoreUnavailable)
		return
	}

	id, err := parseRunID(rawID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	run, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, run)
}

func (h *Handler) save(ctx context.Context, name string, rec domain.MetricsRecord, episodes []drawdown.Episode) (runs.Run, error) {
	if h.store == nil {
		return runs.Run{}, errStoreUnavailable
	}
	if name == "" {
		name = "unnamed"
	}
	run, err := h.store.Save(ctx, runs.Run{Name: name, Metrics: rec, Episodes: episodes})
	if err != nil {
		return runs.Run{}, fmt.Errorf("failed to save run: %w", err)
	}
	h.log.Info().Str("run_id", run.ID.String()).Str("name", name).Msg("Stored analysis run")
	return run, nil
}

func validateSeries(values, benchmark domain.ValueSeries) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: values must not be empty", domain.ErrInputShape)
	}
	if err := values.Validate(); err != nil {
		return err
	}
	if err := benchmark.Validate(); err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}
	return nil
}

func parseRunID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid run id %q", domain.ErrInputShape, raw)
	}
	return id, nil
}
