package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/internal/output"
)

const process = `<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <process id="P1">
    <userTask id="T1" name="Review" in="tw.local.request.amount"/>
    <coachView id="CV1" name="Header"><label>#{tw.local.request.title}</label></coachView>
    <coachView id="CV2"><section><coachView id="CV3"/></section></coachView>
  </process>
</definitions>`

// run executes the root command in a fresh working directory state and
// returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath, verbose = "", false
	analyzeFormat, reportPath = "cli", ""
	extractOut, catalogPath, extractDepths = "", "", nil
	findID, findType = "", ""
	twxOut, twxFormat, twxReport, twxWorkers = "", "cli", "", 0
	cfg, logger = nil, nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func workspace(t *testing.T, content string) string {
	t.Helper()
	// keeps the first-run completion setup away from the test environment
	t.Setenv("SHELL", "/bin/sh")
	t.Setenv("BPMX_OUTPUT_DIR", "")
	t.Setenv("BPMX_LOG_LEVEL", "")

	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "process.bpmn")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyzeJSON(t *testing.T) {
	src := workspace(t, process)
	reportFile := filepath.Join(t.TempDir(), "report.json")

	out, err := run(t, "analyze", src, "-o", "json", "--report", reportFile)
	require.NoError(t, err)
	assert.Contains(t, out, reportFile)

	data, err := os.ReadFile(reportFile)
	require.NoError(t, err)
	var r analysis.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, 8, r.TotalElements)
	assert.Equal(t, 5, r.MaxDepth)
	assert.Equal(t, 1, r.TaskCount)
	assert.Len(t, r.Entities["coachView"], 3)
}

func TestAnalyzeRejectsUnknownFormat(t *testing.T) {
	src := workspace(t, process)

	_, err := run(t, "analyze", src, "-o", "pdf")
	assert.ErrorContains(t, err, "invalid output format")
}

func TestAnalyzeMissingFile(t *testing.T) {
	workspace(t, process)

	_, err := run(t, "analyze", "missing.bpmn")
	assert.ErrorContains(t, err, "file does not exist")
}

func TestExtract(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "extract", src, "coachview", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 2 component(s)")

	data, err := os.ReadFile(filepath.Join(outDir, output.InventoryFile))
	require.NoError(t, err)
	var inv output.Inventory
	require.NoError(t, json.Unmarshal(data, &inv))
	assert.Equal(t, "coachView", inv.Category)
	require.Len(t, inv.Components, 2)
	assert.Equal(t, "CV1", inv.Components[0].ID)
	assert.Equal(t, "CV2", inv.Components[1].ID)

	fragment, err := os.ReadFile(filepath.Join(outDir, "coachView", "CV2.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(fragment), `<coachView id="CV3"/>`)
	assert.FileExists(t, filepath.Join(outDir, "coachView", "CV1.json"))
}

func TestExtractByID(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "extract", src, "coachView", "CV1", "--out", outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "coachView", "CV1.xml"))
	assert.NoFileExists(t, filepath.Join(outDir, "coachView", "CV2.xml"))
}

func TestExtractAnyCategoryByID(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "extract", src, "*", "T1", "--out", outDir)
	require.NoError(t, err)
	// without a category the element name becomes the component type
	assert.FileExists(t, filepath.Join(outDir, "userTask", "T1.xml"))

	_, err = run(t, "extract", src, "*", "--out", outDir)
	assert.ErrorContains(t, err, "requires an id")
}

func TestExtractAtDepth(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "extract", src, "coachView", "--depth", "4", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 1 component(s)")
	assert.FileExists(t, filepath.Join(outDir, "coachView", "CV3.xml"))
}

func TestExtractUnknownCategory(t *testing.T) {
	src := workspace(t, process)

	_, err := run(t, "extract", src, "widgets")
	assert.ErrorContains(t, err, `unknown category "widgets"`)
}

func TestExtractMalformedLeavesNoOutput(t *testing.T) {
	src := workspace(t, `<root><coachView id="A"><x/></coachView><coachView id="B"><y></coachView></root>`)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "extract", src, "coachView", "--out", outDir)
	var malformed *extract.MalformedDocumentError
	require.True(t, errors.As(err, &malformed))
	assert.True(t, extract.IsFatal(err))

	assert.NoDirExists(t, outDir)
}

func TestExtractMalformedKeepsPreviousRun(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := run(t, "extract", src, "coachView", "--out", outDir)
	require.NoError(t, err)
	cv1, err := os.ReadFile(filepath.Join(outDir, "coachView", "CV1.xml"))
	require.NoError(t, err)
	inventory, err := os.ReadFile(filepath.Join(outDir, output.InventoryFile))
	require.NoError(t, err)

	broken := `<definitions><coachView id="CV1"><label>changed</label></coachView><coachView id="X"><y></coachView></definitions>`
	require.NoError(t, os.WriteFile(src, []byte(broken), 0o644))
	_, err = run(t, "extract", src, "coachView", "--out", outDir)
	require.Error(t, err)

	after, err := os.ReadFile(filepath.Join(outDir, "coachView", "CV1.xml"))
	require.NoError(t, err)
	assert.Equal(t, string(cv1), string(after))
	after, err = os.ReadFile(filepath.Join(outDir, output.InventoryFile))
	require.NoError(t, err)
	assert.Equal(t, string(inventory), string(after))
}

func TestExtractCatalogFailureKeepsRun(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")
	// a directory cannot be opened as a database
	db := t.TempDir()

	out, err := run(t, "extract", src, "coachView", "--out", outDir, "--catalog", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 2 component(s)")
	assert.FileExists(t, filepath.Join(outDir, output.InventoryFile))
}

func TestFirstRunSetupStaysOffStdout(t *testing.T) {
	src := workspace(t, process)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHELL", "/bin/bash")

	out, err := run(t, "analyze", src, "-o", "json", "--report", filepath.Join(t.TempDir(), "r.json"))
	require.NoError(t, err)
	assert.NotContains(t, out, "completions")
	assert.FileExists(t, filepath.Join(home, ".local/share/bash-completion/completions/bpmx"))
}

func TestExtractRecordsCatalog(t *testing.T) {
	src := workspace(t, process)
	outDir := filepath.Join(t.TempDir(), "out")
	db := filepath.Join(t.TempDir(), "catalog.db")

	_, err := run(t, "extract", src, "coachView", "--out", outDir, "--catalog", db)
	require.NoError(t, err)

	out, err := run(t, "catalog", "runs", db)
	require.NoError(t, err)
	assert.Contains(t, out, "coachView")

	out, err = run(t, "catalog", "find", db, "--id", "CV2")
	require.NoError(t, err)
	assert.Contains(t, out, "coachView/CV2.xml")

	out, err = run(t, "catalog", "show", db, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "CV1")

	_, err = run(t, "catalog", "find", db)
	assert.ErrorContains(t, err, "exactly one of --id or --type")
}

func TestCategories(t *testing.T) {
	workspace(t, process)

	out, err := run(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "coachView")
	assert.Contains(t, out, "userTask")
}

func TestConfigFile(t *testing.T) {
	src := workspace(t, process)
	require.NoError(t, os.WriteFile("custom.yaml", []byte("categories:\n  header:\n    - label\n"), 0o644))
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "--config", "custom.yaml", "extract", src, "header", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Extracted 1 component(s)")
}
