package cmd

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rustle-dev/rustle/internal/config"
)

func chdirTemp(t *testing.T) string {
	t.Helper()

	tempDir := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(oldDir) })
	require.NoError(t, os.Chdir(tempDir))

	return tempDir
}

func TestSpellMissingToolWrapsCause(t *testing.T) {
	chdirTemp(t)
	viper.Reset()
	defer viper.Reset()

	// Empty PATH so the spell checker cannot resolve
	t.Setenv("PATH", t.TempDir())

	err := runSpell(spellCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cargo install typos-cli")
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestInitCommand(t *testing.T) {
	chdirTemp(t)
	initForce = false

	require.NoError(t, runInit(&cobra.Command{}, nil))
	assert.FileExists(t, ".rustle.yml")

	// Second run without --force refuses to overwrite
	err := runInit(&cobra.Command{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	initForce = true
	defer func() { initForce = false }()
	assert.NoError(t, runInit(&cobra.Command{}, nil))
}

func TestStarterConfigLoads(t *testing.T) {
	// The generated file must parse as YAML with the expected sections
	var parsed map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(starterConfig), &parsed))
	assert.Contains(t, parsed, "server")
	assert.Contains(t, parsed, "wasm")
	assert.Contains(t, parsed, "watch")
	assert.Contains(t, parsed, "checks")

	// And it must survive the full viper + validation path
	tempDir := chdirTemp(t)
	path := filepath.Join(tempDir, ".rustle.yml")
	require.NoError(t, os.WriteFile(path, []byte(starterConfig), 0644))

	viper.Reset()
	defer viper.Reset()
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.True(t, cfg.Build.Locked)
	assert.Equal(t, []string{"src"}, cfg.Watch.Paths)
	assert.Equal(t, config.DefaultCheckOrder, cfg.Checks.Enabled)
}

func TestDoctorCheckConfiguration(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	result := checkConfiguration()
	assert.Equal(t, "info", result.Status)
	assert.Contains(t, result.Suggestion, "rustle init")
}

func TestValidatePortFlag(t *testing.T) {
	assert.NoError(t, validatePortFlag("8420"))
	assert.Error(t, validatePortFlag("0"))
	assert.Error(t, validatePortFlag("99999"))
	assert.Error(t, validatePortFlag("not-a-port"))
}

func TestValidateFormatFlag(t *testing.T) {
	validate := validateFormatFlag("table", "json", "yaml")
	assert.NoError(t, validate("table"))
	assert.NoError(t, validate("yaml"))
	assert.Error(t, validate("xml"))
}

func TestAddFlagValidation(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	cmd.Flags().Int("port", 8420, "")
	addFlagValidation(cmd, "port", validatePortFlag)

	flag := cmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Error(t, flag.Value.Set("70000"))
	assert.NoError(t, flag.Value.Set("3000"))
	assert.Equal(t, "3000", flag.Value.String())
}

func TestDoctorReportFormats(t *testing.T) {
	report := &DoctorReport{
		Results: []DiagnosticResult{
			{Name: "cargo", Category: "toolchain", Status: "ok", Message: "cargo 1.79.0"},
			{Name: "typos", Category: "toolchain", Status: "warning", Message: "typos not found",
				Suggestion: "Run: cargo install typos-cli"},
		},
		Summary: ReportSummary{Total: 2, OK: 1, Warnings: 1},
	}

	for _, format := range []string{"table", "json", "yaml"} {
		doctorFormat = format
		assert.NoError(t, writeDoctorReport(report), format)
	}

	doctorFormat = "xml"
	assert.Error(t, writeDoctorReport(report))
	doctorFormat = "table"
}
