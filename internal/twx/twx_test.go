package twx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/internal/extract"
)

var archiveFiles = []struct{ name, body string }{
	{"META-INF/package.xml", `<package name="demo"/>`},
	{"objects/21.aaaa.xml", `<teamworks><coachView id="CV1" binding="tw.local.a.b"><section/></coachView></teamworks>`},
	{"objects/25.bbbb.xml", `<teamworks><process id="P1"><userTask id="T1"/><userTask id="T2"/></process></teamworks>`},
	{"objects/99.cccc.xml", `<teamworks><unknown/></teamworks>`},
	{"objects/12.broken.xml", `<teamworks><twClass></teamworks>`},
	{"toolkits/readme.txt", `not xml`},
}

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.twx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, file := range archiveFiles {
		w, err := zw.Create(file.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(file.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name, category, prefix string
	}{
		{"objects/21.4f2c-11.xml", "coachView", "21"},
		{"25.abc.xml", "process", "25"},
		{"objects/99.x.xml", OtherCategory, "99"},
		{"objects/readme.txt", OtherCategory, ""},
		{"META-INF/package.xml", MetadataCategory, ""},
	}
	for _, tt := range tests {
		category, prefix := Categorize(tt.name, DefaultPrefixes())
		assert.Equal(t, tt.category, category, tt.name)
		assert.Equal(t, tt.prefix, prefix, tt.name)
	}
}

func TestUnpack(t *testing.T) {
	out := t.TempDir()
	m, err := Unpack(context.Background(), writeArchive(t), out, nil)
	require.NoError(t, err)

	assert.Len(t, m.Entries, len(archiveFiles))
	assert.Equal(t, map[string]int{
		"businessObject": 1,
		"coachView":      1,
		"metadata":       1,
		"other":          2,
		"process":        1,
	}, m.Categories)
	assert.Equal(t, "META-INF/package.xml", m.Entries[0].Name)

	data, err := os.ReadFile(filepath.Join(out, "coachView", "21.aaaa.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="CV1"`)
	assert.FileExists(t, filepath.Join(out, ManifestFile))
}

func TestUnpackMissingArchive(t *testing.T) {
	_, err := Unpack(context.Background(), filepath.Join(t.TempDir(), "none.twx"), t.TempDir(), nil)
	assert.Error(t, err)
}

func analyzeOptions() AnalyzeOptions {
	return AnalyzeOptions{
		Scan:    extract.Options{Categories: map[string][]string{"task": {"userTask"}}},
		Scoring: analysis.DefaultScoring(),
		Workers: 2,
	}
}

func TestAnalyzeArchive(t *testing.T) {
	s, err := AnalyzeArchive(context.Background(), writeArchive(t), analyzeOptions())
	require.NoError(t, err)

	assert.Equal(t, 5, s.Files)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Bindings)
	assert.Equal(t, 2, s.TaskCount)
	assert.Equal(t, "objects/25.bbbb.xml", s.MostComplex)

	require.Len(t, s.Results, 5)
	assert.Equal(t, "META-INF/package.xml", s.Results[0].Path)
	assert.Equal(t, "objects/12.broken.xml", s.Results[1].Path)
	assert.Contains(t, s.Results[1].Error, "closed by")
	assert.Nil(t, s.Results[1].Report)
}

func TestAnalyzeDirMatchesArchive(t *testing.T) {
	archive := writeArchive(t)
	dir := t.TempDir()
	_, err := Unpack(context.Background(), archive, dir, nil)
	require.NoError(t, err)

	s, err := AnalyzeDir(context.Background(), dir, analyzeOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, s.Files)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.TaskCount)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AnalyzeArchive(ctx, writeArchive(t), analyzeOptions())
	assert.ErrorIs(t, err, context.Canceled)
}
