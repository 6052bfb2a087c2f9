package output

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/bpmx/internal/extract"
)

const views = `<root xmlns:tw="urn:tw">
  <coachView id="A"><label>Hello &amp; bye</label></coachView>
  <coachView id="A"><label>Again</label></coachView>
  <coachView><label>Anonymous</label></coachView>
</root>`

func extractTo(t *testing.T, dir string) (*extract.Result, *DirSink) {
	t.Helper()
	sink := NewDirSink(dir)
	res, err := extract.Scan(context.Background(), strings.NewReader(views), extract.Options{
		Predicate:  extract.MatchTags([]string{"coachView"}, ""),
		Category:   "coachView",
		SourcePath: "views.xml",
		Sink:       sink,
	})
	require.NoError(t, err)
	_, err = WriteInventory(sink, NewInventory(res, "coachView", ""))
	require.NoError(t, err)
	return res, sink
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestDirSinkLayout(t *testing.T) {
	dir := t.TempDir()
	res, _ := extractTo(t, dir)

	files := readTree(t, dir)
	assert.ElementsMatch(t, []string{
		"coachView/A.xml", "coachView/A.json",
		"coachView/A-2.xml", "coachView/A-2.json",
		"coachView/coachView-0002.xml", "coachView/coachView-0002.json",
		"inventory.json",
	}, keys(files))

	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>
<coachView id="A" xmlns:tw="urn:tw">
  <label>Hello &amp; bye</label>
</coachView>
`, files["coachView/A.xml"])
	assert.Contains(t, files["coachView/A.json"], `"id": "A"`)
	assert.Contains(t, files["coachView/A.json"], `"source": "views.xml"`)

	require.Len(t, res.Inventory, 3)
	assert.Equal(t, "coachView/A.xml", res.Inventory[0].Path)
	assert.Equal(t, "coachView/A-2.json", res.Inventory[1].MetadataPath)
	assert.Equal(t, map[string]int{"A": 2}, res.DuplicateIDs)
	assert.Contains(t, files["inventory.json"], `"duplicateIds": {
    "A": 2
  }`)
}

func TestSuffixSkipsNamesTakenByOtherIDs(t *testing.T) {
	dir := t.TempDir()
	sink := NewDirSink(dir)
	doc := `<root><coachView id="A-2"><x/></coachView><coachView id="A"><y/></coachView><coachView id="A"><z/></coachView></root>`

	res, err := extract.Scan(context.Background(), strings.NewReader(doc), extract.Options{
		Predicate: extract.MatchTags([]string{"coachView"}, ""),
		Category:  "coachView",
		Sink:      sink,
	})
	require.NoError(t, err)

	require.Len(t, res.Inventory, 3)
	assert.Equal(t, "coachView/A-2.xml", res.Inventory[0].Path)
	assert.Equal(t, "coachView/A.xml", res.Inventory[1].Path)
	assert.Equal(t, "coachView/A-3.xml", res.Inventory[2].Path)

	files := readTree(t, dir)
	assert.Contains(t, files["coachView/A-2.xml"], "<x/>")
	assert.Contains(t, files["coachView/A.xml"], "<y/>")
	assert.Contains(t, files["coachView/A-3.xml"], "<z/>")
}

func TestRollbackRestoresPreviousRun(t *testing.T) {
	root := t.TempDir()
	_, first := extractTo(t, root)
	require.NoError(t, first.Commit())
	before := readTree(t, root)

	second := NewDirSink(root)
	_, err := extract.Scan(context.Background(), strings.NewReader(`<root><coachView id="A"><label>new</label></coachView><broken>`), extract.Options{
		Predicate: extract.MatchTags([]string{"coachView"}, ""),
		Category:  "coachView",
		Sink:      second,
	})
	require.Error(t, err)
	require.NoError(t, second.Rollback())

	assert.Equal(t, before, readTree(t, root))
}

func TestCommitDropsReplacedContent(t *testing.T) {
	root := t.TempDir()
	_, first := extractTo(t, root)
	require.NoError(t, first.Commit())

	_, second := extractTo(t, root)
	require.NoError(t, second.Commit())

	for name := range readTree(t, root) {
		assert.NotContains(t, name, backupSuffix)
	}
	require.NoError(t, second.Rollback())
	assert.Contains(t, readTree(t, root), "coachView/A.xml")
}

func TestRerunIsByteIdentical(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	extractTo(t, first)
	extractTo(t, second)

	assert.Equal(t, readTree(t, first), readTree(t, second))
}

func TestRollbackRemovesEverything(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "out", "run")
	_, sink := extractTo(t, root)
	require.NotEmpty(t, readTree(t, root))

	require.NoError(t, sink.Rollback())

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRollbackKeepsPreexistingFiles(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "coachView", "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(keep), 0755))
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0644))

	_, sink := extractTo(t, root)
	require.NoError(t, sink.Rollback())

	assert.Equal(t, map[string]string{"coachView/notes.txt": "keep"}, readTree(t, root))
}

func TestWriteFailureIsReported(t *testing.T) {
	root := t.TempDir()
	// a file where the category directory should go
	require.NoError(t, os.WriteFile(filepath.Join(root, "coachView"), nil, 0644))

	res, err := extract.Scan(context.Background(), strings.NewReader(views), extract.Options{
		Predicate: extract.MatchTags([]string{"coachView"}, ""),
		Category:  "coachView",
		Sink:      NewDirSink(root),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Inventory)
	require.Len(t, res.Failures, 3)
	assert.Equal(t, extract.FailureWrite, res.Failures[0].Kind)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "64.abc-1_2", SafeName("64.abc-1/2"))
	assert.Equal(t, "a_b", SafeName("a b"))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
