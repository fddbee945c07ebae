// Package config loads the TOML run configuration of the feinit example:
// the tank problem, the Newton solver and the initializer options.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/notargets/DAEInit/logging"
	"github.com/notargets/DAEInit/model"
	"github.com/notargets/DAEInit/solver"
	"github.com/notargets/DAEInit/utils"
)

type Config struct {
	Problem    utils.TankConfig
	Solver     solver.Config
	Initialize InitializeConfig
	Report     ReportConfig
}

type InitializeConfig struct {
	OutputLevel logging.Level
	IgnoreDOF   bool
}

type ReportConfig struct {
	Plot      string   // PNG/SVG/PDF path, no plot when empty
	Variables []string // Slice paths below the tank block, e.g. h[*]
}

func Default() Config {
	return Config{
		Problem: utils.DefaultTankConfig(),
		Solver:  solver.DefaultConfig(),
		Initialize: InitializeConfig{
			OutputLevel: logging.Info,
		},
		Report: ReportConfig{
			Variables: []string{"h[*]", "outlet[*].flow"},
		},
	}
}

type fileConfig struct {
	Problem struct {
		Scheme       string  `toml:"scheme"`
		NFE          int     `toml:"nfe"`
		NCP          int     `toml:"ncp"`
		Horizon      float64 `toml:"horizon"`
		InitialLevel float64 `toml:"initial_level"`
		Inflow       float64 `toml:"inflow"`
		Diameter     float64 `toml:"diameter"`
		OutflowCoeff float64 `toml:"outflow_coeff"`
		Opening      float64 `toml:"opening"`
	} `toml:"problem"`
	Solver struct {
		Tolerance     float64 `toml:"tolerance"`
		MaxIterations int     `toml:"max_iterations"`
		MinDamping    float64 `toml:"min_damping"`
		FDStep        float64 `toml:"fd_step"`
	} `toml:"solver"`
	Initialize struct {
		OutputLevel string `toml:"output_level"`
		IgnoreDOF   bool   `toml:"ignore_dof"`
	} `toml:"initialize"`
	Report struct {
		Plot      string   `toml:"plot"`
		Variables []string `toml:"variables"`
	} `toml:"report"`
}

// Load overlays the keys present in the file at path onto Default and
// validates the result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	p := &cfg.Problem
	if meta.IsDefined("problem", "scheme") {
		s, err := model.ParseScheme(raw.Problem.Scheme)
		if err != nil {
			return Config{}, fmt.Errorf("parse problem.scheme: %w", err)
		}
		p.Scheme = s
	}
	if meta.IsDefined("problem", "nfe") {
		p.NFE = raw.Problem.NFE
	}
	if meta.IsDefined("problem", "ncp") {
		p.NCP = raw.Problem.NCP
	}
	if meta.IsDefined("problem", "horizon") {
		p.Horizon = raw.Problem.Horizon
	}
	if meta.IsDefined("problem", "initial_level") {
		p.InitialLevel = raw.Problem.InitialLevel
	}
	if meta.IsDefined("problem", "inflow") {
		p.Inflow = raw.Problem.Inflow
	}
	if meta.IsDefined("problem", "diameter") {
		p.Diameter = raw.Problem.Diameter
	}
	if meta.IsDefined("problem", "outflow_coeff") {
		p.OutflowCoeff = raw.Problem.OutflowCoeff
	}
	if meta.IsDefined("problem", "opening") {
		p.Opening = raw.Problem.Opening
	}

	s := &cfg.Solver
	if meta.IsDefined("solver", "tolerance") {
		s.Tolerance = raw.Solver.Tolerance
	}
	if meta.IsDefined("solver", "max_iterations") {
		s.MaxIterations = raw.Solver.MaxIterations
	}
	if meta.IsDefined("solver", "min_damping") {
		s.MinDamping = raw.Solver.MinDamping
	}
	if meta.IsDefined("solver", "fd_step") {
		s.FDStep = raw.Solver.FDStep
	}

	if meta.IsDefined("initialize", "output_level") {
		lvl, err := logging.ParseLevel(raw.Initialize.OutputLevel)
		if err != nil {
			return Config{}, fmt.Errorf("parse initialize.output_level: %w", err)
		}
		cfg.Initialize.OutputLevel = lvl
	}
	if meta.IsDefined("initialize", "ignore_dof") {
		cfg.Initialize.IgnoreDOF = raw.Initialize.IgnoreDOF
	}

	if meta.IsDefined("report", "plot") {
		cfg.Report.Plot = strings.TrimSpace(raw.Report.Plot)
	}
	if meta.IsDefined("report", "variables") {
		cfg.Report.Variables = normalizeVariables(raw.Report.Variables)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range value at once
func (c Config) Validate() error {
	var errs []error
	p := c.Problem
	if p.NFE < 1 {
		errs = append(errs, fmt.Errorf("problem.nfe must be >= 1, got %d", p.NFE))
	}
	if p.Scheme == model.LagrangeRadau && p.NCP < 1 {
		errs = append(errs, fmt.Errorf("problem.ncp must be >= 1, got %d", p.NCP))
	}
	if p.Horizon <= 0 {
		errs = append(errs, fmt.Errorf("problem.horizon must be > 0, got %g", p.Horizon))
	}
	if p.Diameter <= 0 {
		errs = append(errs, fmt.Errorf("problem.diameter must be > 0, got %g", p.Diameter))
	}
	if c.Solver.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("solver.tolerance must be > 0, got %g", c.Solver.Tolerance))
	}
	if c.Solver.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("solver.max_iterations must be >= 1, got %d", c.Solver.MaxIterations))
	}
	if c.Solver.MinDamping <= 0 || c.Solver.MinDamping > 1 {
		errs = append(errs, fmt.Errorf("solver.min_damping must be in (0,1], got %g", c.Solver.MinDamping))
	}
	if c.Solver.FDStep <= 0 {
		errs = append(errs, fmt.Errorf("solver.fd_step must be > 0, got %g", c.Solver.FDStep))
	}
	return errors.Join(errs...)
}

func normalizeVariables(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
