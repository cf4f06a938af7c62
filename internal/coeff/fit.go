package coeff

import "math"

// Fit builds a table by fitting a quadratic to tanh on every segment.
// Least squares over Chebyshev-spaced nodes is close enough to the minimax
// optimum on these narrow intervals; a table polished by offline minimax
// tooling can be loaded with Parse instead.
func Fit() *Table {
	t := &Table{}
	for i := 0; i < Segments; i++ {
		a, b := SegmentBounds(i)
		c0, c1, c2 := fitSegment(a, b)
		t.entries[i] = Coefficients{float32(c0), float32(c1), float32(c2)}
	}
	return t
}

const fitNodes = 512

// fitSegment solves the quadratic least-squares fit of tanh over [a, b].
func fitSegment(a, b float64) (c0, c1, c2 float64) {
	// Power sums for the normal equations, accumulated over Chebyshev
	// nodes to keep the endpoints well represented.
	var s [5]float64
	var ty [3]float64
	for k := 0; k < fitNodes; k++ {
		u := math.Cos(math.Pi * (float64(k) + 0.5) / fitNodes)
		x := 0.5*(a+b) + 0.5*(b-a)*u
		y := math.Tanh(x)
		xp := 1.0
		for j := 0; j < 5; j++ {
			s[j] += xp
			if j < 3 {
				ty[j] += y * xp
			}
			xp *= x
		}
	}

	m := [3][4]float64{
		{s[0], s[1], s[2], ty[0]},
		{s[1], s[2], s[3], ty[1]},
		{s[2], s[3], s[4], ty[2]},
	}
	sol := solve3(m)
	return sol[0], sol[1], sol[2]
}

// solve3 performs Gaussian elimination with partial pivoting on a 3x3
// augmented system.
func solve3(m [3][4]float64) [3]float64 {
	for col := 0; col < 3; col++ {
		pivot := col
		for r := col + 1; r < 3; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < 3; r++ {
			f := m[r][col] / m[col][col]
			for k := col; k < 4; k++ {
				m[r][k] -= f * m[col][k]
			}
		}
	}
	var sol [3]float64
	for r := 2; r >= 0; r-- {
		v := m[r][3]
		for k := r + 1; k < 3; k++ {
			v -= m[r][k] * sol[k]
		}
		sol[r] = v / m[r][r]
	}
	return sol
}
