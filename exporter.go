package lagrangeda

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Exporter defines an export interface.
type Exporter interface {
	Write(step int, mean, variance []complex128) error
	Close() error
}

// CSVExporter writes one line per step with, for every state component, the
// real and imaginary parts of the mean and its 2σ bound.
type CSVExporter struct {
	delimiter string
	dt        float64
	hdlr      *os.File
}

// Close closes the file.
func (e CSVExporter) Close() (err error) {
	err = e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC()))
	if err != nil {
		return
	}
	return e.hdlr.Close()
}

// Write writes the estimate of one step to the CSV file.
func (e CSVExporter) Write(step int, mean, variance []complex128) error {
	if err := checkLen(len(variance), len(mean), "variance"); err != nil {
		return err
	}
	vals := make([]string, 2, 2+len(mean)*3)
	vals[0] = fmt.Sprintf("%d", step)
	vals[1] = fmt.Sprintf("%f", float64(step)*e.dt)
	for i := range mean {
		twoσ := 2 * math.Sqrt(math.Max(real(variance[i]), 0))
		vals = append(vals, fmt.Sprintf("%f", real(mean[i])), fmt.Sprintf("%f", imag(mean[i])), fmt.Sprintf("%f", twoσ))
	}
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteResult writes every step of res.
func (e CSVExporter) WriteResult(res *Result) error {
	_, steps := res.Dims()
	for k := 0; k < steps; k++ {
		if err := e.Write(k, res.State(k), res.Variance(k)); err != nil {
			return err
		}
	}
	return nil
}

// WriteRawLn writes a raw line to the CSV file.
func (e CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// Name returns the path of the CSV file.
func (e CSVExporter) Name() string {
	return e.hdlr.Name()
}

// NewCSVExporter initializes a new CSV export with one header per state component.
func NewCSVExporter(headers []string, dt float64, dir, filename string) (e *CSVExporter, err error) {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return
	}
	delimiter := ","
	hdr := []string{"step", "t"}
	for _, h := range headers {
		hdr = append(hdr, h+"_re", h+"_im", h+"_2s")
	}
	if _, err = f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n%s\n", time.Now().UTC(), strings.Join(hdr, delimiter))); err != nil {
		f.Close()
		return nil, err
	}
	e = &CSVExporter{delimiter, dt, f}
	return
}

// ModeHeaders names the components of a state over s, repeating the mode list
// once per field prefix (e.g. "psi", "tau").
func ModeHeaders(s *SpectralSet, prefixes ...string) []string {
	var out []string
	for _, p := range prefixes {
		for _, m := range s.Modes() {
			out = append(out, fmt.Sprintf("%s(%d;%d)", p, m.Kx, m.Ky))
		}
	}
	return out
}
