package lagrangeda

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidConfig is returned when a parameter makes the filter undefined.
	ErrInvalidConfig = errors.New("lagrangeda: invalid configuration")
	// ErrShape is returned when inputs disagree on their dimensions.
	ErrShape = errors.New("lagrangeda: shape mismatch")
)

// DimensionAgreement defines how two matrices' dimensions should agree.
type DimensionAgreement uint8

const (
	dimErrMsg                    = "dimensions must agree: "
	rows2cols DimensionAgreement = iota + 1
	cols2rows
	cols2cols
	rows2rows
	rowsAndcols
)

// checkMatDims checks the matrix dimensions match provided a DimensionAgreement. Returns an error if not.
func checkMatDims(m1, m2 mat.CMatrix, name1, name2 string, method DimensionAgreement) error {
	r1, c1 := m1.Dims()
	r2, c2 := m2.Dims()
	var ok bool
	var msg string
	switch method {
	case rows2cols:
		ok = r1 == c2
		msg = fmt.Sprintf("%s(%dx...) %s(...x%d)", name1, r1, name2, c2)
	case cols2rows:
		ok = c1 == r2
		msg = fmt.Sprintf("%s(...x%d) %s(%dx...)", name1, c1, name2, r2)
	case cols2cols:
		ok = c1 == c2
		msg = fmt.Sprintf("%s(...x%d) %s(...x%d)", name1, c1, name2, c2)
	case rows2rows:
		ok = r1 == r2
		msg = fmt.Sprintf("%s(%dx...) %s(%dx...)", name1, r1, name2, r2)
	case rowsAndcols:
		ok = c1 == c2 && r1 == r2
		msg = fmt.Sprintf("%s(%dx%d) %s(%dx%d)", name1, r1, c1, name2, r2, c2)
	}
	if !ok {
		return fmt.Errorf("%w: %s%s", ErrShape, dimErrMsg, msg)
	}
	return nil
}

// checkLen checks that a vector has the expected length.
func checkLen(n, want int, name string) error {
	if n != want {
		return fmt.Errorf("%w: %s has length %d, expected %d", ErrShape, name, n, want)
	}
	return nil
}

// checkFinite rejects NaN and infinite parameters.
func checkFinite(v float64, name string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidConfig, name, v)
	}
	return nil
}
