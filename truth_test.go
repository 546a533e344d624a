package lagrangeda

import (
	"errors"
	"math"
	"testing"
)

func TestSkill(t *testing.T) {
	truth := [][]complex128{{1, 2i}, {0, 0}, {1, -1}}
	res := NewResult(2, 3)
	if err := res.Set(0, truth[0], []complex128{1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := res.Set(1, []complex128{1, 0}, []complex128{2, 0}); err != nil {
		t.Fatal(err)
	}
	if err := res.Set(2, []complex128{2, -2}, []complex128{0.5, 2}); err != nil {
		t.Fatal(err)
	}
	sk, err := NewGroundTruth(truth).Skill(res)
	if err != nil {
		t.Fatal(err)
	}
	if sk.RMSE[0] != 0 || sk.NEES[0] != 0 {
		t.Fatalf("perfect estimate has RMSE %f NEES %f", sk.RMSE[0], sk.NEES[0])
	}
	if math.Abs(sk.Corr[0]-1) > 1e-12 {
		t.Fatalf("perfect estimate has correlation %f", sk.Corr[0])
	}
	if math.Abs(sk.RMSE[1]-math.Sqrt(0.5)) > 1e-15 {
		t.Fatalf("RMSE = %f", sk.RMSE[1])
	}
	// The zero variance component is left out.
	if math.Abs(sk.NEES[1]-0.5) > 1e-15 {
		t.Fatalf("NEES = %f", sk.NEES[1])
	}
	// (1/0.5 + 1/2)/2
	if math.Abs(sk.NEES[2]-1.25) > 1e-15 {
		t.Fatalf("NEES = %f", sk.NEES[2])
	}
}

func TestSkillShape(t *testing.T) {
	res := NewResult(2, 3)
	if _, err := NewGroundTruth(make([][]complex128, 2)).Skill(res); !errors.Is(err, ErrShape) {
		t.Fatalf("short truth returned %v", err)
	}
	truth := [][]complex128{{0, 0}, {0}, {0, 0}}
	if _, err := NewGroundTruth(truth).Skill(res); !errors.Is(err, ErrShape) {
		t.Fatalf("ragged truth returned %v", err)
	}
	if RMSE(nil, nil) != 0 {
		t.Fatal("empty RMSE")
	}
}
