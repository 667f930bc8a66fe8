package mechanics

import "math"

// SolveChangeOfState returns the positive root of t³ + A·t² + B = 0.
// With B < 0 there is exactly one positive real root. Cardano's formula on the
// depressed cubic gives the seed; damped Newton polishes it, falling back to
// bisection when the derivative vanishes.
func SolveChangeOfState(a, b float64) float64 {
	if b >= 0 {
		// no load: the only non-negative root is the trivial one or −A
		return math.Max(-a, 0)
	}

	t := cardano(a, b)
	if !(t > 0) || math.IsInf(t, 0) {
		t = math.Max(-a, 0) + math.Cbrt(-b)
	}
	return polish(a, b, t)
}

// cardano returns the largest real root of t³ + a·t² + b = 0
func cardano(a, b float64) float64 {
	// t = y − a/3  →  y³ + p·y + q = 0
	p := -a * a / 3
	q := 2*a*a*a/27 + b
	disc := q*q/4 + p*p*p/27

	var y float64
	if disc >= 0 {
		sq := math.Sqrt(disc)
		y = math.Cbrt(-q/2+sq) + math.Cbrt(-q/2-sq)
	} else {
		r := math.Sqrt(-p / 3)
		arg := 3 * q / (2 * p) * math.Sqrt(-3/p)
		arg = math.Max(-1, math.Min(1, arg))
		phi := math.Acos(arg) / 3
		// k = 0 gives the largest root
		y = 2 * r * math.Cos(phi)
	}
	return y - a/3
}

func polish(a, b, t float64) float64 {
	f := func(x float64) float64 { return x*x*x + a*x*x + b }
	df := func(x float64) float64 { return 3*x*x + 2*a*x }

	// bracket [lo, hi] around the positive root: f(0) = b < 0
	lo, hi := 0.0, math.Max(t, 1e-9)
	for f(hi) < 0 {
		hi *= 2
		if hi > 1e12 {
			break
		}
	}

	x := t
	for i := 0; i < 100; i++ {
		fx := f(x)
		if math.Abs(fx) < 1e-14*math.Max(1, math.Abs(b)) {
			return x
		}
		if fx < 0 {
			lo = math.Max(lo, x)
		} else {
			hi = math.Min(hi, x)
		}
		d := df(x)
		var next float64
		if math.Abs(d) < 1e-12 {
			next = (lo + hi) / 2
		} else {
			next = x - fx/d
			// damp steps leaving the bracket
			if next <= lo || next >= hi {
				next = (lo + hi) / 2
			}
		}
		if math.Abs(next-x) < 1e-13*math.Max(1, x) {
			return math.Max(next, 0)
		}
		x = next
	}
	return math.Max(x, 0)
}
