package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zhongruiw/lagrangeda"
)

// Scenario is a twin experiment read from a YAML file. Zero fields take the
// values of DefaultScenario.
type Scenario struct {
	K        int     `yaml:"k"`
	RCut     float64 `yaml:"r_cut"`
	Style    string  `yaml:"style"`
	Steps    int     `yaml:"steps"`
	Chunk    int     `yaml:"chunk"`
	Dt       float64 `yaml:"dt"`
	Prefetch bool    `yaml:"prefetch"`
	Seed     uint64  `yaml:"seed"`
	Runs     int     `yaml:"runs"`
	Workers  int     `yaml:"workers"`

	OU     OUScenario `yaml:"ou"`
	QG     QGScenario `yaml:"qg"`
	Output Output     `yaml:"output"`
}

// OUScenario sets the reduced model shared by every mode and the tracers.
type OUScenario struct {
	Tracers int     `yaml:"tracers"`
	Gamma   float64 `yaml:"gamma"`
	Omega   float64 `yaml:"omega"`
	Sigma   float64 `yaml:"sigma"`
	Forcing float64 `yaml:"forcing"`
	SigmaXY float64 `yaml:"sigma_xy"`
	R1      float64 `yaml:"r1"`
	R2      float64 `yaml:"r2"`
}

// QGScenario sets the two-layer model and the surrogate upper-layer flow.
type QGScenario struct {
	Kd         float64 `yaml:"kd"`
	Beta       float64 `yaml:"beta"`
	Kappa      float64 `yaml:"kappa"`
	Nu         float64 `yaml:"nu"`
	U          float64 `yaml:"u"`
	Sigma1     float64 `yaml:"sigma1"`
	Sigma2     float64 `yaml:"sigma2"`
	Topography float64 `yaml:"topography"`
	Psi1Gamma  float64 `yaml:"psi1_gamma"`
	Psi1Sigma  float64 `yaml:"psi1_sigma"`
}

// Output selects the artifacts written after a run.
type Output struct {
	Dir       string `yaml:"dir"`
	CSV       bool   `yaml:"csv"`
	Plot      bool   `yaml:"plot"`
	PlotModes int    `yaml:"plot_modes"`
	DB        string `yaml:"db"`
}

// DefaultScenario returns a small experiment that runs in a few seconds.
func DefaultScenario() *Scenario {
	return &Scenario{
		K:       8,
		RCut:    2,
		Style:   "circle",
		Steps:   500,
		Chunk:   50,
		Dt:      0.005,
		Seed:    1,
		Runs:    1,
		Workers: 4,
		OU: OUScenario{
			Tracers: 16,
			Gamma:   0.5,
			Omega:   1,
			Sigma:   0.3,
			SigmaXY: 0.1,
			R1:      1,
			R2:      0.5,
		},
		QG: QGScenario{
			Kd:        4,
			Beta:      2,
			Kappa:     0.5,
			Nu:        1e-6,
			U:         0.5,
			Sigma1:    0.1,
			Sigma2:    0.1,
			Psi1Gamma: 0.5,
			Psi1Sigma: 0.2,
		},
		Output: Output{
			Dir:       ".",
			CSV:       true,
			PlotModes: 2,
		},
	}
}

// Validate checks the scenario before anything is simulated.
func (s *Scenario) Validate() error {
	var errs []error
	if s.K < 1 {
		errs = append(errs, fmt.Errorf("k must be positive, got %d", s.K))
	}
	if s.RCut < 0 {
		errs = append(errs, fmt.Errorf("r_cut must not be negative, got %f", s.RCut))
	}
	if _, err := lagrangeda.ParseStyle(s.Style); err != nil {
		errs = append(errs, err)
	}
	if err := (lagrangeda.RunConfig{Steps: s.Steps, Chunk: s.Chunk, Dt: s.Dt}).Validate(); err != nil {
		errs = append(errs, err)
	}
	if s.Runs < 1 {
		errs = append(errs, fmt.Errorf("runs must be positive, got %d", s.Runs))
	}
	if s.OU.Tracers < 1 {
		errs = append(errs, fmt.Errorf("ou.tracers must be positive, got %d", s.OU.Tracers))
	}
	if s.OU.Gamma < 0 || s.QG.Psi1Gamma < 0 {
		errs = append(errs, errors.New("damping must not be negative"))
	}
	if s.OU.SigmaXY <= 0 || s.QG.Sigma1 <= 0 {
		errs = append(errs, errors.New("observation noise must be positive"))
	}
	if s.Output.PlotModes < 0 {
		errs = append(errs, fmt.Errorf("output.plot_modes must not be negative, got %d", s.Output.PlotModes))
	}
	return errors.Join(errs...)
}

// RunConfig returns the horizon of the scenario.
func (s *Scenario) RunConfig() lagrangeda.RunConfig {
	return lagrangeda.RunConfig{Steps: s.Steps, Chunk: s.Chunk, Dt: s.Dt, Prefetch: s.Prefetch}
}

// SpectralSet returns the retained modes of the scenario.
func (s *Scenario) SpectralSet() (*lagrangeda.SpectralSet, error) {
	style, err := lagrangeda.ParseStyle(s.Style)
	if err != nil {
		return nil, err
	}
	return lagrangeda.NewSpectralSet(s.K, s.RCut, style)
}

const maxScenarioSize = 1 << 20

// LoadScenario reads a YAML scenario over the defaults.
func LoadScenario(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("scenario file must have .yaml or .yml extension, got %q", ext)
	}
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	if fileInfo.Size() > maxScenarioSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", fileInfo.Size(), maxScenarioSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return sc, nil
}
