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

const (
	// frontierTolerance is the accepted |w·μ - target| relative to the
	// spread of single-asset means.
	frontierTolerance  = 1e-7
	maxOuterIterations = 50
)

// FrontierPoint is one minimum-variance portfolio at a target return.
// Infeasible points carry nil Weights.
type FrontierPoint struct {
	TargetReturn float64   `json:"target_return"`
	Volatility   float64   `json:"volatility"`
	Weights      []float64 `json:"weights"`
	Feasible     bool      `json:"feasible"`
}

// EfficientFrontier solves min wᵀΣw subject to Σw = 1, w·μ = target, w ≥ 0
// for numPoints targets evenly spaced between the lowest and highest
// single-asset mean. Points are ordered by ascending target.
func (o *Optimizer) EfficientFrontier(R mat.Matrix, numPoints int) ([]FrontierPoint, error) {
	return o.EfficientFrontierContext(context.Background(), R, numPoints)
}

// EfficientFrontierContext is EfficientFrontier with cancellation.
func (o *Optimizer) EfficientFrontierContext(ctx context.Context, R mat.Matrix, numPoints int) ([]FrontierPoint, error) {
	if numPoints < 1 {
		return nil, fmt.Errorf("%w: num_points must be at least 1, got %d", domain.ErrInputShape, numPoints)
	}
	sigma, err := Covariance(R)
	if err != nil {
		return nil, err
	}
	mu := MeanReturns(R)

	lo, hi := mu[0], mu[0]
	for _, m := range mu {
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}

	points := make([]FrontierPoint, numPoints)
	for p := 0; p < numPoints; p++ {
		target := lo
		if numPoints > 1 {
			target = lo + (hi-lo)*float64(p)/float64(numPoints-1)
		}
		points[p] = FrontierPoint{TargetReturn: target}

		w, err := o.minVarianceAt(ctx, sigma, mu, target, lo, hi)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		std, err := PortfolioStd(w, sigma)
		if err != nil {
			return nil, err
		}
		points[p].Weights = w
		points[p].Volatility = std
		points[p].Feasible = true
	}
	return points, nil
}

var errInfeasible = errors.New("target return not reached")

// minVarianceAt finds the minimum-variance weights with w·μ = target.
func (o *Optimizer) minVarianceAt(ctx context.Context, sigma *mat.SymDense, mu []float64, target, lo, hi float64) ([]float64, error) {
	spread := hi - lo
	extreme := math.Abs(target-lo) <= frontierTolerance*spread || math.Abs(target-hi) <= frontierTolerance*spread
	if spread == 0 || extreme {
		// only the assets sitting at the extreme mean can reach it
		subset := make([]int, 0, len(mu))
		for i, m := range mu {
			if spread == 0 || math.Abs(m-target) <= frontierTolerance*spread {
				subset = append(subset, i)
			}
		}
		sub, err := o.solveMinVariance(ctx, subSigma(sigma, subset), nil, 0, 1)
		if err != nil {
			return nil, err
		}
		w := make([]float64, len(mu))
		for k, i := range subset {
			w[i] = sub[k]
		}
		return w, nil
	}

	w, err := o.solveMinVariance(ctx, sigma, mu, target, spread)
	if err != nil {
		return nil, err
	}
	if math.Abs(dot(w, mu)-target) > frontierTolerance*spread {
		return nil, fmt.Errorf("%w: %w", domain.ErrOptimizationFailure, errInfeasible)
	}
	return w, nil
}

// solveMinVariance minimises scaled variance with an augmented Lagrangian
// on the return constraint. A nil mu drops the constraint.
func (o *Optimizer) solveMinVariance(ctx context.Context, sigma mat.Symmetric, mu []float64, target, scale float64) ([]float64, error) {
	n := sigma.SymmetricDim()
	if n == 1 {
		return []float64{1}, nil
	}
	vscale := 0.0
	for i := 0; i < n; i++ {
		vscale += sigma.At(i, i)
	}
	vscale /= float64(n)
	if vscale <= 0 {
		vscale = 1
	}

	constraint := func(w []float64) float64 {
		if mu == nil {
			return 0
		}
		return (dot(w, mu) - target) / scale
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sqrt(1.0 / float64(n))
	}

	lambda := 0.0
	rho := penaltyWeight
	for outer := 0; outer < maxOuterIterations; outer++ {
		multiplier := lambda
		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				w, s := simplexWeights(x)
				c := constraint(w)
				obj := quad(sigma, w) / vscale
				obj += multiplier*c + rho/2*c*c
				obj += penaltyWeight * (s - 1.0) * (s - 1.0)
				return obj
			},
			Grad: func(grad, x []float64) {
				w, s := simplexWeights(x)
				c := constraint(w)
				sw := mulVec(sigma, w)
				g := make([]float64, n)
				for i := 0; i < n; i++ {
					g[i] = 2 * sw[i] / vscale
					if mu != nil {
						g[i] += (multiplier + rho*c) * mu[i] / scale
					}
				}
				chainSimplex(grad, g, x, w, s)
			},
		}

		next, err := o.minimize(ctx, problem, x)
		if err != nil {
			return nil, err
		}
		x = next

		w, _ := simplexWeights(x)
		c := constraint(w)
		if math.Abs(c) <= frontierTolerance/10 {
			break
		}
		lambda += rho * c
	}

	w, _ := simplexWeights(x)
	return w, nil
}

func subSigma(sigma mat.Symmetric, idx []int) *mat.SymDense {
	out := mat.NewSymDense(len(idx), nil)
	for a, i := range idx {
		for b := a; b < len(idx); b++ {
			out.SetSym(a, b, sigma.At(i, idx[b]))
		}
	}
	return out
}
