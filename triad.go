package lagrangeda

// Triad couples modes k, m and n = k-m of a SpectralSet through the quadratic
// advection term. K, M and N are flattened indices.
type Triad struct {
	K, M, N int
	Det     float64 // mx*ny - my*nx
}

// Det returns the determinant of the 2×2 matrix with rows m and n.
func Det(m, n Mode) float64 {
	return float64(m.Kx*n.Ky - m.Ky*n.Kx)
}

// NewTriadTable lists every (k, m) pair of s for which k-m is also in s,
// ordered by k then m.
func NewTriadTable(s *SpectralSet) []Triad {
	modes := s.Modes()
	var triads []Triad
	for ik, k := range modes {
		for im, m := range modes {
			n := k.Sub(m)
			in, ok := s.Index(n)
			if !ok {
				continue
			}
			triads = append(triads, Triad{K: ik, M: im, N: in, Det: Det(m, n)})
		}
	}
	return triads
}
