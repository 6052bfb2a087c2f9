// Package output writes extraction artifacts to disk: one XML file and one
// JSON sidecar per component, partitioned by category, plus the inventory
// and analysis report documents.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/mabhi256/bpmx/internal/extract"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Sidecar is the JSON document written next to each component.
type Sidecar struct {
	extract.Metadata
	Index  int    `json:"index"`
	Line   int    `json:"line"`
	Source string `json:"source,omitempty"`
	Bytes  int    `json:"bytes"`
}

// backupSuffix marks the previous content of a file the current run
// overwrote. It is restored on Rollback and removed on Commit.
const backupSuffix = ".bpmx-prev"

// DirSink writes each component as soon as it is handed over. It remembers
// what it created or replaced so a failed run can be rolled back.
type DirSink struct {
	root    string
	used    map[string]bool
	files   []written
	dirs    []string
	created map[string]bool
}

type written struct {
	path   string
	backup string
}

func NewDirSink(root string) *DirSink {
	return &DirSink{
		root:    root,
		used:    make(map[string]bool),
		created: make(map[string]bool),
	}
}

func (s *DirSink) Root() string {
	return s.root
}

func (s *DirSink) Write(c extract.Component) (extract.Paths, error) {
	category := SafeName(c.Type)
	if category == "" {
		category = "component"
	}
	if err := s.mkdir(filepath.Join(s.root, category)); err != nil {
		return extract.Paths{}, err
	}

	base := s.uniqueBase(category, componentBase(c))
	xmlRel := filepath.Join(category, base+".xml")
	metaRel := filepath.Join(category, base+".json")

	if err := s.writeFile(xmlRel, []byte(c.XML)); err != nil {
		return extract.Paths{}, err
	}

	meta, err := marshal(Sidecar{
		Metadata: c.Metadata,
		Index:    c.Index,
		Line:     c.Line,
		Source:   c.SourcePath,
		Bytes:    len(c.XML),
	})
	if err == nil {
		err = s.writeFile(metaRel, meta)
	}
	if err != nil {
		s.removeLast()
		return extract.Paths{}, err
	}

	return extract.Paths{XML: filepath.ToSlash(xmlRel), Metadata: filepath.ToSlash(metaRel)}, nil
}

// componentBase names a component by its id, or by element and position when
// it has none.
func componentBase(c extract.Component) string {
	if id := SafeName(c.ID); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%04d", SafeName(c.Element), c.Index)
}

// uniqueBase returns the first of base, base-2, base-3, ... not yet written
// in the category during this run.
func (s *DirSink) uniqueBase(category, base string) string {
	candidate := base
	for n := 2; s.used[category+"/"+candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	s.used[category+"/"+candidate] = true
	return candidate
}

func (s *DirSink) mkdir(dir string) error {
	if s.created[dir] {
		return nil
	}
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		if _, err := os.Stat(d); err == nil {
			break
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	s.created[dir] = true
	for _, d := range slices.Backward(missing) {
		s.dirs = append(s.dirs, d)
	}
	return nil
}

func (s *DirSink) writeFile(rel string, data []byte) error {
	path := filepath.Join(s.root, rel)
	w := written{path: path}

	if info, err := os.Lstat(path); err == nil && info.Mode().IsRegular() {
		w.backup = path + backupSuffix
		if err := os.Rename(path, w.backup); err != nil {
			return fmt.Errorf("keep previous %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		_ = restore(w)
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.files = append(s.files, w)
	return nil
}

// restore removes a written file and puts back the content it replaced.
func restore(w written) error {
	err := os.Remove(w.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if w.backup != "" {
		return os.Rename(w.backup, w.path)
	}
	return nil
}

func (s *DirSink) removeLast() {
	if len(s.files) == 0 {
		return
	}
	last := s.files[len(s.files)-1]
	s.files = s.files[:len(s.files)-1]
	_ = restore(last)
}

// Commit keeps the run's output and drops the previous content it replaced.
func (s *DirSink) Commit() error {
	var errs []error
	for _, w := range s.files {
		if w.backup == "" {
			continue
		}
		if err := os.Remove(w.backup); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.files, s.dirs = nil, nil
	return errors.Join(errs...)
}

// Rollback removes every file the sink wrote and every directory it created,
// newest first. Files that existed before the run get their content back.
func (s *DirSink) Rollback() error {
	var errs []error
	for _, w := range slices.Backward(s.files) {
		if err := restore(w); err != nil {
			errs = append(errs, err)
		}
	}
	for _, d := range slices.Backward(s.dirs) {
		if err := os.Remove(d); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.files, s.dirs = nil, nil
	clear(s.created)
	clear(s.used)
	return errors.Join(errs...)
}

// SafeName replaces characters that are not portable in file names.
func SafeName(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}
