package lagrangeda

import (
	"fmt"
	"math"
	"strings"
)

// Style selects which modes of the full grid are retained.
type Style uint8

const (
	// Circle keeps modes with kx²+ky² ≤ rCut².
	Circle Style = iota + 1
	// Square keeps modes with max(|kx|,|ky|) ≤ rCut.
	Square
)

func (s Style) String() string {
	switch s {
	case Circle:
		return "circle"
	case Square:
		return "square"
	default:
		return fmt.Sprintf("Style(%d)", uint8(s))
	}
}

// ParseStyle returns the Style named by s.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "circle":
		return Circle, nil
	case "square":
		return Square, nil
	}
	return 0, fmt.Errorf("%w: unknown truncation style %q", ErrInvalidConfig, s)
}

// Mode is an integer wavenumber pair.
type Mode struct {
	Kx, Ky int
}

// SqNorm returns kx²+ky².
func (m Mode) SqNorm() int {
	return m.Kx*m.Kx + m.Ky*m.Ky
}

// Sub returns m-o.
func (m Mode) Sub(o Mode) Mode {
	return Mode{m.Kx - o.Kx, m.Ky - o.Ky}
}

// Wavenumber returns the signed wavenumber at index j of a K point FFT axis,
// i.e. fftfreq(K)*K.
func Wavenumber(j, K int) int {
	if j < (K+1)/2 {
		return j
	}
	return j - K
}

// SpectralSet is the truncated set of modes of a K×K grid.
// Grids are indexed [iy][ix] and modes are ordered with ix outer and iy inner.
type SpectralSet struct {
	K     int
	RCut  float64
	Style Style

	modes []Mode
	cells [][2]int // (iy, ix) of each retained mode
	index map[Mode]int
	kx    []float64
	ky    []float64
}

// NewSpectralSet enumerates the modes of a K×K grid retained by the style predicate.
func NewSpectralSet(K int, rCut float64, style Style) (*SpectralSet, error) {
	if K <= 0 {
		return nil, fmt.Errorf("%w: grid resolution K=%d", ErrInvalidConfig, K)
	}
	if rCut < 0 || math.IsNaN(rCut) {
		return nil, fmt.Errorf("%w: truncation radius %f", ErrInvalidConfig, rCut)
	}
	if style != Circle && style != Square {
		return nil, fmt.Errorf("%w: truncation style %s", ErrInvalidConfig, style)
	}
	s := &SpectralSet{K: K, RCut: rCut, Style: style, index: make(map[Mode]int)}
	for ix := 0; ix < K; ix++ {
		for iy := 0; iy < K; iy++ {
			m := Mode{Wavenumber(ix, K), Wavenumber(iy, K)}
			if !s.keeps(m) {
				continue
			}
			s.index[m] = len(s.modes)
			s.modes = append(s.modes, m)
			s.cells = append(s.cells, [2]int{iy, ix})
			s.kx = append(s.kx, float64(m.Kx))
			s.ky = append(s.ky, float64(m.Ky))
		}
	}
	if len(s.modes) == 0 {
		return nil, fmt.Errorf("%w: truncation r=%f keeps no mode", ErrInvalidConfig, rCut)
	}
	return s, nil
}

func (s *SpectralSet) keeps(m Mode) bool {
	switch s.Style {
	case Square:
		a, b := math.Abs(float64(m.Kx)), math.Abs(float64(m.Ky))
		return math.Max(a, b) <= s.RCut
	default:
		return float64(m.SqNorm()) <= s.RCut*s.RCut
	}
}

// Len returns the number of retained modes.
func (s *SpectralSet) Len() int {
	return len(s.modes)
}

// Modes returns the retained modes in flattened order.
func (s *SpectralSet) Modes() []Mode {
	return s.modes
}

// Index returns the flattened index of m.
func (s *SpectralSet) Index(m Mode) (int, bool) {
	i, ok := s.index[m]
	return i, ok
}

// KX returns the x wavenumbers of the retained modes.
func (s *SpectralSet) KX() []float64 {
	return s.kx
}

// KY returns the y wavenumbers of the retained modes.
func (s *SpectralSet) KY() []float64 {
	return s.ky
}

func (s *SpectralSet) checkGrid(rows int, cols func(int) int, name string) error {
	if rows != s.K {
		return fmt.Errorf("%w: %s has %d rows, expected %d", ErrShape, name, rows, s.K)
	}
	for i := 0; i < rows; i++ {
		if c := cols(i); c != s.K {
			return fmt.Errorf("%w: %s row %d has %d columns, expected %d", ErrShape, name, i, c, s.K)
		}
	}
	return nil
}

// Truncate flattens the retained modes of a K×K grid.
func (s *SpectralSet) Truncate(grid [][]complex128) ([]complex128, error) {
	if err := s.checkGrid(len(grid), func(i int) int { return len(grid[i]) }, "grid"); err != nil {
		return nil, err
	}
	out := make([]complex128, len(s.cells))
	for j, c := range s.cells {
		out[j] = grid[c[0]][c[1]]
	}
	return out, nil
}

// TruncateReal flattens the retained modes of a real K×K grid.
func (s *SpectralSet) TruncateReal(grid [][]float64) ([]float64, error) {
	if err := s.checkGrid(len(grid), func(i int) int { return len(grid[i]) }, "grid"); err != nil {
		return nil, err
	}
	out := make([]float64, len(s.cells))
	for j, c := range s.cells {
		out[j] = grid[c[0]][c[1]]
	}
	return out, nil
}

// TruncateSeries flattens every grid of a time series.
func (s *SpectralSet) TruncateSeries(series [][][]complex128) ([][]complex128, error) {
	out := make([][]complex128, len(series))
	for t, g := range series {
		flat, err := s.Truncate(g)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", t, err)
		}
		out[t] = flat
	}
	return out, nil
}

// Expand is the inverse of Truncate; modes outside the set are zero.
func (s *SpectralSet) Expand(flat []complex128) ([][]complex128, error) {
	if len(flat) != len(s.cells) {
		return nil, fmt.Errorf("%w: flat vector of length %d, expected %d", ErrShape, len(flat), len(s.cells))
	}
	grid := make([][]complex128, s.K)
	for iy := range grid {
		grid[iy] = make([]complex128, s.K)
	}
	for j, c := range s.cells {
		grid[c[0]][c[1]] = flat[j]
	}
	return grid, nil
}
