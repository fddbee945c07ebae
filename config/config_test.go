package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/DAEInit/logging"
	"github.com/notargets/DAEInit/model"
	"github.com/notargets/DAEInit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[problem]
scheme = "radau"
nfe = 8
ncp = 3

[solver]
tolerance = 1e-10

[initialize]
output_level = "debug"
ignore_dof = true

[report]
plot = " out.png "
variables = ["h[*]", " ", "outlet[*].flow"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, model.LagrangeRadau, cfg.Problem.Scheme)
	assert.Equal(t, 8, cfg.Problem.NFE)
	assert.Equal(t, 3, cfg.Problem.NCP)
	assert.Equal(t, def.Problem.Horizon, cfg.Problem.Horizon)
	assert.Equal(t, def.Problem.Inflow, cfg.Problem.Inflow)
	assert.Equal(t, 1e-10, cfg.Solver.Tolerance)
	assert.Equal(t, def.Solver.MaxIterations, cfg.Solver.MaxIterations)
	assert.Equal(t, logging.Debug, cfg.Initialize.OutputLevel)
	assert.True(t, cfg.Initialize.IgnoreDOF)
	assert.Equal(t, "out.png", cfg.Report.Plot)
	assert.Equal(t, []string{"h[*]", "outlet[*].flow"}, cfg.Report.Variables)

	_, err = utils.NewTankModel(cfg.Problem)
	assert.NoError(t, err)
}

func TestLoadEmptyFileIsDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "examples", "feinit", "tank.toml"))
	require.NoError(t, err)
	assert.Equal(t, model.LagrangeRadau, cfg.Problem.Scheme)
	assert.Equal(t, "tank_profiles.png", cfg.Report.Plot)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "[problem]\nnfe = 2\ncolour = \"red\"\n",
		"bad scheme":     "[problem]\nscheme = \"orthogonal\"\n",
		"bad level":      "[initialize]\noutput_level = \"loud\"\n",
		"bad nfe":        "[problem]\nnfe = 0\n",
		"bad tolerance":  "[solver]\ntolerance = -1.0\n",
		"bad damping":    "[solver]\nmin_damping = 2.0\n",
		"malformed toml": "[problem\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Problem.NFE = 0
	cfg.Problem.Horizon = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem.nfe")
	assert.Contains(t, err.Error(), "problem.horizon")
	assert.NoError(t, Default().Validate())
}
