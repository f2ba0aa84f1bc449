// Package optimization implements long-only mean-variance portfolio
// construction over a returns matrix (rows are periods, columns are assets).
package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/AlgoGators/algosystem/internal/domain"
	"github.com/AlgoGators/algosystem/pkg/formulas"
)

// Performance summarises a weighted portfolio in per-period units.
type Performance struct {
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// NewReturnsMatrix builds a T×K matrix from row-major returns.
func NewReturnsMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: returns matrix is empty", domain.ErrInputShape)
	}
	k := len(rows[0])
	data := make([]float64, 0, len(rows)*k)
	for i, row := range rows {
		if len(row) != k {
			return nil, fmt.Errorf("%w: row %d has %d assets, expected %d", domain.ErrInputShape, i, len(row), k)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), k, data), nil
}

// MeanReturns returns the per-asset mean of each column of R.
func MeanReturns(R mat.Matrix) []float64 {
	_, k := R.Dims()
	mu := make([]float64, k)
	for j := 0; j < k; j++ {
		mu[j] = stat.Mean(mat.Col(nil, j, R), nil)
	}
	return mu
}

// Covariance returns the sample covariance matrix of the columns of R.
func Covariance(R mat.Matrix) (*mat.SymDense, error) {
	if err := checkMatrix(R); err != nil {
		return nil, err
	}
	if t, _ := R.Dims(); t < 2 {
		return nil, fmt.Errorf("%w: covariance needs at least 2 periods, got %d", domain.ErrInputShape, t)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, R, nil)

	// constant columns are riskless; clear the rounding residue
	_, k := R.Dims()
	for j := 0; j < k; j++ {
		if formulas.IsConstant(mat.Col(nil, j, R)) {
			for i := 0; i < k; i++ {
				cov.SetSym(i, j, 0)
			}
		}
	}
	return &cov, nil
}

// PortfolioReturn is w · mean(R).
func PortfolioReturn(w []float64, R mat.Matrix) (float64, error) {
	if err := checkMatrix(R); err != nil {
		return 0, err
	}
	_, k := R.Dims()
	if len(w) != k {
		return 0, fmt.Errorf("%w: %d weights for %d assets", domain.ErrInputShape, len(w), k)
	}
	return dot(w, MeanReturns(R)), nil
}

// PortfolioVariance is wᵀΣw.
func PortfolioVariance(w []float64, sigma mat.Symmetric) (float64, error) {
	if len(w) != sigma.SymmetricDim() {
		return 0, fmt.Errorf("%w: %d weights for a %d-asset covariance", domain.ErrInputShape, len(w), sigma.SymmetricDim())
	}
	v := mat.NewVecDense(len(w), append([]float64(nil), w...))
	return mat.Inner(v, sigma, v), nil
}

// PortfolioStd is the square root of PortfolioVariance.
func PortfolioStd(w []float64, sigma mat.Symmetric) (float64, error) {
	v, err := PortfolioVariance(w, sigma)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(math.Max(v, 0)), nil
}

// Sharpe is (PortfolioReturn - rf) / PortfolioStd, or 0 for a riskless portfolio.
func Sharpe(w []float64, R mat.Matrix, sigma mat.Symmetric, rf float64) (float64, error) {
	perf, err := Evaluate(w, R, sigma, rf)
	if err != nil {
		return 0, err
	}
	return perf.SharpeRatio, nil
}

// Evaluate computes the Performance of w.
func Evaluate(w []float64, R mat.Matrix, sigma mat.Symmetric, rf float64) (Performance, error) {
	ret, err := PortfolioReturn(w, R)
	if err != nil {
		return Performance{}, err
	}
	std, err := PortfolioStd(w, sigma)
	if err != nil {
		return Performance{}, err
	}
	sharpe := 0.0
	if std > 0 {
		sharpe = domain.Finite((ret - rf) / std)
	}
	return Performance{ExpectedReturn: ret, Volatility: std, SharpeRatio: sharpe}, nil
}

func checkMatrix(R mat.Matrix) error {
	if R == nil {
		return fmt.Errorf("%w: returns matrix is nil", domain.ErrInputShape)
	}
	t, k := R.Dims()
	if t == 0 || k == 0 {
		return fmt.Errorf("%w: returns matrix is %dx%d", domain.ErrInputShape, t, k)
	}
	return nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
