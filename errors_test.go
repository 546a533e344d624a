package lagrangeda

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCheckMatDims(t *testing.T) {
	a := mat.NewCDense(2, 3, nil)
	b := mat.NewCDense(3, 2, nil)
	for _, tc := range []struct {
		method DimensionAgreement
		ok     bool
	}{
		{rows2cols, true},
		{cols2rows, true},
		{cols2cols, false},
		{rows2rows, false},
		{rowsAndcols, false},
	} {
		err := checkMatDims(a, b, "a", "b", tc.method)
		if (err == nil) != tc.ok {
			t.Fatalf("method %d returned %v", tc.method, err)
		}
		if err != nil && !errors.Is(err, ErrShape) {
			t.Fatalf("method %d error %v does not wrap ErrShape", tc.method, err)
		}
	}
	if err := checkMatDims(a, a, "a", "a", rowsAndcols); err != nil {
		t.Fatal(err)
	}
}

func TestCheckFinite(t *testing.T) {
	if err := checkFinite(1, "x"); err != nil {
		t.Fatal(err)
	}
	for _, v := range []float64{math.NaN(), math.Inf(-1)} {
		if err := checkFinite(v, "x"); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%f returned %v", v, err)
		}
	}
	if err := checkLen(2, 3, "v"); !errors.Is(err, ErrShape) {
		t.Fatalf("checkLen returned %v", err)
	}
}
