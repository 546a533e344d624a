package lagrangeda

import (
	"os"
	"strings"
	"testing"
)

func TestImplementsExporter(t *testing.T) {
	implements := func(Exporter) {}
	implements(new(CSVExporter))
}

func TestCSVExportFail(t *testing.T) {
	_, err := NewCSVExporter([]string{"psi"}, 0.1, "/noNoNoNo/", "temp.csv")
	if err == nil {
		t.Fatal("no issue when trying to create a file in a missing directory")
	}
}

func TestCSVExport(t *testing.T) {
	s, err := NewSpectralSet(4, 0, Circle)
	if err != nil {
		t.Fatal(err)
	}
	headers := ModeHeaders(s, "psi", "tau")
	if len(headers) != 2 || headers[0] != "psi(0;0)" || headers[1] != "tau(0;0)" {
		t.Fatalf("unexpected headers %v", headers)
	}
	ce, err := NewCSVExporter(headers, 0.5, t.TempDir(), "temp.csv")
	if err != nil {
		t.Fatalf("could not create file %s", err)
	}
	res := NewResult(2, 3)
	for k := 0; k < 3; k++ {
		if err := res.Set(k, []complex128{complex(float64(k), 1), -1i}, []complex128{4, 0}); err != nil {
			t.Fatal(err)
		}
	}
	if err = ce.WriteResult(res); err != nil {
		t.Fatalf("could not write result to file %s", err)
	}
	if err = ce.Write(3, []complex128{1}, nil); err == nil {
		t.Fatal("mismatched variance accepted")
	}
	if err = ce.Close(); err != nil {
		t.Fatalf("could not close file %s", err)
	}
	data, err := os.ReadFile(ce.Name())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// creation date, header, three steps, closing date
	if len(lines) != 6 {
		t.Fatalf("unexpected number of lines: %d", len(lines))
	}
	if lines[1] != "step,t,psi(0;0)_re,psi(0;0)_im,psi(0;0)_2s,tau(0;0)_re,tau(0;0)_im,tau(0;0)_2s" {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if lines[4] != "2,1.000000,2.000000,1.000000,4.000000,0.000000,-1.000000,0.000000" {
		t.Fatalf("unexpected row %q", lines[4])
	}
}
