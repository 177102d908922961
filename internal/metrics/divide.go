package metrics

import (
	"fmt"
	"math"
)

// ZeroDivisionPolicy records how a quotient was resolved.
type ZeroDivisionPolicy int

const (
	// PolicyNone is an ordinary quotient.
	PolicyNone ZeroDivisionPolicy = iota
	// PolicyZero is a quotient whose denominator was zero, resolved to 0.
	PolicyZero
)

// Quotient is the typed result of Divide.
type Quotient struct {
	Value  float64
	Policy ZeroDivisionPolicy
}

// Zeroed reports whether the denominator was zero.
func (q Quotient) Zeroed() bool { return q.Policy == PolicyZero }

// NumericError is a division failure other than a zero denominator, such as
// a non-finite operand or an overflowing result.
type NumericError struct {
	A, B float64
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric error dividing %v by %v", e.A, e.B)
}

// Divide returns a/b. A zero denominator yields 0 with PolicyZero; non-finite
// operands or results are a NumericError.
func Divide(a, b float64) (Quotient, error) {
	if !finite(a) || !finite(b) {
		return Quotient{}, &NumericError{A: a, B: b}
	}
	if b == 0 {
		return Quotient{Value: 0, Policy: PolicyZero}, nil
	}
	v := a / b
	if !finite(v) {
		return Quotient{}, &NumericError{A: a, B: b}
	}
	return Quotient{Value: v}, nil
}

// ScalarDivide is Divide without the policy tag.
func ScalarDivide(a, b float64) (float64, error) {
	q, err := Divide(a, b)
	return q.Value, err
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// divider keeps the first NumericError across a run of divisions so metric
// code can stay linear.
type divider struct {
	err error
}

func (d *divider) div(a, b float64) float64 {
	v, err := ScalarDivide(a, b)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

// scaled is c*a/b with the zero policy of Divide.
func (d *divider) scaled(c, a, b float64) float64 {
	return c * d.div(a, b)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
