package formulas

// CumulativeGrowth compounds periodic returns: c_t = Π(1+r_i) for i ≤ t.
func CumulativeGrowth(returns []float64) []float64 {
	out := make([]float64, len(returns))
	c := 1.0
	for i, r := range returns {
		c *= 1 + r
		out[i] = c
	}
	return out
}

// DrawdownPath returns d_t = c_t/m_t - 1 where c is the compounded growth of
// returns and m_t is the running peak. The peak starts at the initial unit
// of capital, so a first-period loss is already a drawdown.
func DrawdownPath(returns []float64) []float64 {
	out := make([]float64, len(returns))
	c, peak := 1.0, 1.0
	for i, r := range returns {
		c *= 1 + r
		if c > peak {
			peak = c
		}
		out[i] = c/peak - 1
	}
	return out
}

// MaxDrawdown returns the most negative value of DrawdownPath (≤ 0), or 0
// when the path never dips below its peak.
func MaxDrawdown(returns []float64) float64 {
	worst := 0.0
	c, peak := 1.0, 1.0
	for _, r := range returns {
		c *= 1 + r
		if c > peak {
			peak = c
		}
		if dd := c/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
