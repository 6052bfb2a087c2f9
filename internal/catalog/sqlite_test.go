package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mabhi256/bpmx/internal/extract"
	"github.com/mabhi256/bpmx/internal/output"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	inv := output.Inventory{
		Source:   "a.xml",
		Category: "coachView",
		Components: []extract.Entry{
			{Index: 0, Type: "coachView", ID: "CV1", Name: "Header", Line: 3, Bytes: 120, Source: "a.xml", Path: "coachView/CV1.xml", MetadataPath: "coachView/CV1.json"},
			{Index: 1, Type: "coachView", ID: "CV2", Line: 9, Bytes: 80, Source: "a.xml", Path: "coachView/CV2.xml"},
		},
		Errors: []extract.Failure{{Kind: extract.FailureWrite, Type: "coachView", ID: "CV3", Message: "disk full"}},
	}

	runID, err := s.RecordRun(ctx, inv, "out")
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, Run{ID: runID, Source: "a.xml", Category: "coachView", OutputDir: "out", Components: 2, Failures: 1}, runs[0])

	comps, err := s.Components(ctx, runID)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "CV1", comps[0].ID)
	assert.Equal(t, "Header", comps[0].Name)
	assert.Equal(t, "coachView/CV1.json", comps[0].MetadataPath)
	assert.Equal(t, 1, comps[1].Index)
}

func TestFindAcrossRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	for _, src := range []string{"a.xml", "b.xml"} {
		_, err := s.RecordRun(ctx, output.Inventory{
			Source: src,
			Components: []extract.Entry{
				{Index: 0, Type: "coachView", ID: "shared", Source: src},
				{Index: 1, Type: "task", ID: "T-" + src, Source: src},
			},
		}, "")
		require.NoError(t, err)
	}

	shared, err := s.FindByID(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, shared, 2)
	assert.Equal(t, "a.xml", shared[0].Source)
	assert.Equal(t, "b.xml", shared[1].Source)

	tasks, err := s.FindByType(ctx, "task")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	none, err := s.FindByID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}
