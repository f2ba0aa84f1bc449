package optimization

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/AlgoGators/algosystem/internal/domain"
)

// penaltyWeight scales the quadratic penalty that pins the parameter norm.
const penaltyWeight = 1000.0

// varianceFloor keeps the Sharpe objective finite for near-riskless mixes.
const varianceFloor = 1e-18

// restartTilt is the weight a restart puts on its favoured asset.
const restartTilt = 0.9

// improvementTolerance is how much a restart must beat the primary solve by
// to replace it.
const improvementTolerance = 1e-9

// Accept various successful convergence statuses
var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
	optimize.MethodConverge:      true,
}

// Options bounds the solver. MaxIterations limits the major iterations of
// each solve (0 means no limit). Initial overrides the equal-weight start;
// an asset started at zero weight stays at zero in every restart.
type Options struct {
	MaxIterations int
	Initial       []float64
}

// Optimizer performs long-only mean-variance optimization.
//
// Weights are parametrised as w_i = x_i² / Σx_j², which keeps every
// candidate on the simplex (w ≥ 0, Σw = 1) so the solver only sees an
// unconstrained problem plus a penalty fixing the scale of x.
type Optimizer struct {
	opts Options
}

// NewOptimizer creates a new mean-variance optimizer.
func NewOptimizer(opts Options) *Optimizer {
	return &Optimizer{opts: opts}
}

// Optimize maximises the Sharpe ratio (w·μ - rf)/sqrt(wᵀΣw) over long-only
// fully invested portfolios.
func (o *Optimizer) Optimize(R mat.Matrix, rf float64) ([]float64, Performance, error) {
	return o.OptimizeContext(context.Background(), R, rf)
}

// OptimizeContext is Optimize with cancellation. A cancelled or expired
// context aborts the solve with ErrOptimizationFailure wrapping ctx.Err().
func (o *Optimizer) OptimizeContext(ctx context.Context, R mat.Matrix, rf float64) ([]float64, Performance, error) {
	sigma, err := Covariance(R)
	if err != nil {
		return nil, Performance{}, err
	}
	mu := MeanReturns(R)
	n := len(mu)

	x0, err := o.initialParams(n)
	if err != nil {
		return nil, Performance{}, err
	}

	if maxDiag(sigma) <= 0 {
		// every asset is riskless; Sharpe is undefined so keep the start
		w, _ := simplexWeights(x0)
		perf, err := Evaluate(w, R, sigma, rf)
		return w, perf, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w, s := simplexWeights(x)
			returnVal := dot(w, mu)
			stdDev := math.Sqrt(math.Max(quad(sigma, w), varianceFloor))

			obj := -(returnVal - rf) / stdDev
			obj += penaltyWeight * (s - 1.0) * (s - 1.0)
			return obj
		},
		Grad: func(grad, x []float64) {
			w, s := simplexWeights(x)
			returnVal := dot(w, mu)
			sw := mulVec(sigma, w)
			stdDev := math.Sqrt(math.Max(dot(w, sw), varianceFloor))

			// gradient with respect to w
			g := make([]float64, n)
			for i := 0; i < n; i++ {
				g[i] = -mu[i]/stdDev + (returnVal-rf)*sw[i]/(stdDev*stdDev*stdDev)
			}
			chainSimplex(grad, g, x, w, s)
		},
	}

	sharpe := func(w []float64) float64 {
		return (dot(w, mu) - rf) / math.Sqrt(math.Max(quad(sigma, w), varianceFloor))
	}

	// A parameter that reaches zero has zero gradient and never recovers,
	// so the solve is repeated from a start tilted towards each asset and
	// the pure single-asset holdings are compared as well.
	var (
		best      []float64
		bestScore = math.Inf(-1)
		firstErr  error
	)
	for _, start := range append([][]float64{x0}, tiltedStarts(x0)...) {
		x, err := o.minimize(ctx, problem, start)
		if err != nil {
			if ctx.Err() != nil {
				return nil, Performance{}, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		w, _ := simplexWeights(x)
		if score := sharpe(w); best == nil || score > bestScore+improvementTolerance {
			best, bestScore = w, score
		}
	}
	if best == nil {
		return nil, Performance{}, firstErr
	}
	for i, v := range x0 {
		if v == 0 || sigma.At(i, i) <= 0 {
			continue
		}
		w := make([]float64, n)
		w[i] = 1
		if score := sharpe(w); score > bestScore+improvementTolerance {
			best, bestScore = w, score
		}
	}

	perf, err := Evaluate(best, R, sigma, rf)
	if err != nil {
		return nil, Performance{}, err
	}
	return best, perf, nil
}

// tiltedStarts returns one start per asset in the support of x0, putting
// restartTilt of the weight on that asset and sharing the rest evenly over
// the other supported assets. Assets outside the support stay at zero.
func tiltedStarts(x0 []float64) [][]float64 {
	support := 0
	for _, v := range x0 {
		if v != 0 {
			support++
		}
	}
	if support < 2 {
		return nil
	}
	rest := (1 - restartTilt) / float64(support-1)
	starts := make([][]float64, 0, support)
	for i, v := range x0 {
		if v == 0 {
			continue
		}
		start := make([]float64, len(x0))
		for j, u := range x0 {
			switch {
			case u == 0:
			case j == i:
				start[j] = math.Sqrt(restartTilt)
			default:
				start[j] = math.Sqrt(rest)
			}
		}
		starts = append(starts, start)
	}
	return starts
}

// minimize runs BFGS from x0 and falls back to Nelder-Mead when BFGS errors
// or stops on a non-converged status.
func (o *Optimizer) minimize(ctx context.Context, problem optimize.Problem, x0 []float64) ([]float64, error) {
	settings := &optimize.Settings{
		MajorIterations:   o.opts.MaxIterations,
		GradientThreshold: 1e-10,
		Recorder:          contextRecorder{ctx: ctx},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailure, ctxErr)
	}
	if err != nil || !successStatuses[result.Status] {
		result, err = optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailure, ctxErr)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrOptimizationFailure, err)
		}
	}
	if !successStatuses[result.Status] {
		return nil, fmt.Errorf("%w: did not converge, status=%v", domain.ErrOptimizationFailure, result.Status)
	}
	return result.X, nil
}

func (o *Optimizer) initialParams(n int) ([]float64, error) {
	x0 := make([]float64, n)
	if o.opts.Initial == nil {
		for i := range x0 {
			x0[i] = math.Sqrt(1.0 / float64(n))
		}
		return x0, nil
	}

	if len(o.opts.Initial) != n {
		return nil, fmt.Errorf("%w: %d initial weights for %d assets", domain.ErrInputShape, len(o.opts.Initial), n)
	}
	sum := 0.0
	for _, w := range o.opts.Initial {
		if w < 0 {
			return nil, fmt.Errorf("%w: initial weights must be non-negative", domain.ErrInputShape)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: initial weights sum to zero", domain.ErrInputShape)
	}
	for i, w := range o.opts.Initial {
		x0[i] = math.Sqrt(w / sum)
	}
	return x0, nil
}

// simplexWeights maps parameters onto the simplex and returns Σx².
func simplexWeights(x []float64) ([]float64, float64) {
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	w := make([]float64, len(x))
	if s == 0 {
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return w, s
	}
	for i, v := range x {
		w[i] = v * v / s
	}
	return w, s
}

// chainSimplex converts a gradient g with respect to w into the gradient
// with respect to x, adding the norm penalty term.
func chainSimplex(grad, g, x, w []float64, s float64) {
	gbar := dot(g, w)
	for i := range grad {
		grad[i] = 0
		if s > 0 {
			grad[i] = 2 * x[i] * (g[i] - gbar) / s
		}
		grad[i] += 4 * penaltyWeight * (s - 1.0) * x[i]
	}
}

func mulVec(sigma mat.Symmetric, w []float64) []float64 {
	n := len(w)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i] += sigma.At(i, j) * w[j]
		}
	}
	return out
}

func quad(sigma mat.Symmetric, w []float64) float64 {
	return dot(w, mulVec(sigma, w))
}

func maxDiag(sigma mat.Symmetric) float64 {
	m := 0.0
	for i := 0; i < sigma.SymmetricDim(); i++ {
		m = math.Max(m, sigma.At(i, i))
	}
	return m
}

// contextRecorder aborts a gonum solve once ctx is done.
type contextRecorder struct {
	ctx context.Context
}

func (r contextRecorder) Init() error { return r.ctx.Err() }

func (r contextRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// IsFailure reports whether err is a recoverable solver failure.
func IsFailure(err error) bool {
	return errors.Is(err, domain.ErrOptimizationFailure)
}
