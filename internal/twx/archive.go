// Package twx unpacks TeamWorks export archives and analyses directories of
// exported XML artifacts.
package twx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mabhi256/bpmx/internal/output"
)

const ManifestFile = "twx-manifest.json"

// DefaultPrefixes maps the numeric prefix of an exported artifact's file name
// to a category.
func DefaultPrefixes() map[string]string {
	return map[string]string{
		"1":  "service",
		"12": "businessObject",
		"21": "coachView",
		"25": "process",
		"61": "asset",
		"62": "environment",
	}
}

const (
	OtherCategory    = "other"
	MetadataCategory = "metadata"
)

type ManifestEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Prefix   string `json:"prefix,omitempty"`
	Category string `json:"category"`
	Size     int64  `json:"size"`
}

type Manifest struct {
	Archive    string          `json:"archive"`
	Entries    []ManifestEntry `json:"entries"`
	Categories map[string]int  `json:"categories"`
}

// Categorize derives the category of an archive entry from the numeric
// prefix of its base name, e.g. 21.4f2c... for a coach view.
func Categorize(name string, prefixes map[string]string) (category, prefix string) {
	base := path.Base(name)
	if strings.HasPrefix(name, "META-INF/") {
		return MetadataCategory, ""
	}
	prefix, _, found := strings.Cut(base, ".")
	if !found || !isNumeric(prefix) {
		return OtherCategory, ""
	}
	if c, ok := prefixes[prefix]; ok {
		return c, prefix
	}
	return OtherCategory, prefix
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Unpack extracts every file of the archive into outDir/<category>/ and
// writes the manifest next to them.
func Unpack(ctx context.Context, archive, outDir string, prefixes map[string]string) (*Manifest, error) {
	if prefixes == nil {
		prefixes = DefaultPrefixes()
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", archive, err)
	}
	defer zr.Close()

	files := slices.Clone(zr.File)
	slices.SortFunc(files, func(a, b *zip.File) int { return strings.Compare(a.Name, b.Name) })

	m := &Manifest{Archive: archive, Categories: make(map[string]int)}
	seen := make(map[string]int)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		category, prefix := Categorize(f.Name, prefixes)
		base := output.SafeName(path.Base(f.Name))
		key := category + "/" + base
		seen[key]++
		if n := seen[key]; n > 1 {
			ext := path.Ext(base)
			base = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
		}
		rel := path.Join(category, base)

		size, err := unpackFile(f, filepath.Join(outDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, ManifestEntry{
			Name:     f.Name,
			Path:     rel,
			Prefix:   prefix,
			Category: category,
			Size:     size,
		})
		m.Categories[category]++
	}

	if err := output.WriteJSON(filepath.Join(outDir, ManifestFile), m); err != nil {
		return nil, err
	}
	return m, nil
}

// unpackFile copies one entry to dest. Destination names come from the
// sanitized base name only, so entries cannot escape outDir.
func unpackFile(f *zip.File, dest string) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, err
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("unpack %s: %w", f.Name, err)
	}
	return n, nil
}

// CategoryNames lists the manifest categories in lexical order.
func (m *Manifest) CategoryNames() []string {
	return slices.Sorted(maps.Keys(m.Categories))
}
