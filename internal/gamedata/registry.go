// Package gamedata builds the read-only section registry the prefetch pass
// scans. Sections come from LTX files (internal/ltx); parent inheritance is
// resolved once at load so field reads are O(1) map lookups afterwards.
package gamedata

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/udisondev/xrprefetch/internal/ltx"
)

// Registry — глобальный view всех секций с уже разрешённым наследованием.
// Read-only после загрузки, безопасен для конкурентных читателей.
type Registry struct {
	resolved map[string]map[string]string // section → effective fields
	order    []string
}

// LoadFile builds a registry from one root LTX file, following its #include
// tree. Use this when the game data has a single system.ltx-style root.
func LoadFile(path string) (*Registry, error) {
	f, err := ltx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading registry from %s: %w", path, err)
	}

	reg, err := build([]*ltx.File{f})
	if err != nil {
		return nil, fmt.Errorf("loading registry from %s: %w", path, err)
	}

	slog.Info("section registry loaded", "root", path, "sections", reg.SectionCount())
	return reg, nil
}

// LoadDir builds a registry from every *.ltx under dir (lexical walk order).
// Files that fail to parse are logged and skipped; a section name seen twice
// keeps its first definition and logs a warning. Do not point LoadDir at a
// tree whose root file #includes the others, or every section shows up twice.
func LoadDir(dir string) (*Registry, error) {
	var files []*ltx.File

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".ltx") {
			return nil
		}

		f, parseErr := ltx.ParseFile(path)
		if parseErr != nil {
			slog.Warn("skipping broken ltx file", "path", path, "error", parseErr)
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking gamedata dir %s: %w", dir, err)
	}

	reg, err := build(files)
	if err != nil {
		return nil, fmt.Errorf("loading registry from %s: %w", dir, err)
	}

	slog.Info("section registry loaded", "dir", dir, "files", len(files), "sections", reg.SectionCount())
	return reg, nil
}

// ReadString returns the effective value of field in section, with parent
// fields already folded in. Absent section or field → ("", false).
func (r *Registry) ReadString(section, field string) (string, bool) {
	fields, ok := r.resolved[section]
	if !ok {
		return "", false
	}
	v, ok := fields[field]
	return v, ok
}

// HasSection reports whether the registry contains the named section.
func (r *Registry) HasSection(name string) bool {
	_, ok := r.resolved[name]
	return ok
}

// EachSection calls fn for every section name in load order until fn
// returns false.
func (r *Registry) EachSection(fn func(name string) bool) {
	for _, name := range r.order {
		if !fn(name) {
			return
		}
	}
}

// SectionCount returns the number of sections.
func (r *Registry) SectionCount() int { return len(r.order) }

// build merges parsed files and resolves inheritance for every section.
func build(files []*ltx.File) (*Registry, error) {
	raw := make(map[string]*ltx.Section)
	var order []string

	for _, f := range files {
		for _, name := range f.SectionNames() {
			sec, _ := f.Section(name)
			if _, dup := raw[name]; dup {
				slog.Warn("duplicate section, keeping first definition", "section", name)
				continue
			}
			raw[name] = sec
			order = append(order, name)
		}
	}

	reg := &Registry{
		resolved: make(map[string]map[string]string, len(raw)),
		order:    order,
	}

	state := make(map[string]int, len(raw)) // 0 unvisited, 1 in progress, 2 done
	for _, name := range order {
		if err := reg.resolve(name, raw, state); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

const (
	stateInProgress = 1
	stateDone       = 2
)

func (r *Registry) resolve(name string, raw map[string]*ltx.Section, state map[string]int) error {
	switch state[name] {
	case stateDone:
		return nil
	case stateInProgress:
		return fmt.Errorf("inheritance cycle through section [%s]", name)
	}
	state[name] = stateInProgress

	sec := raw[name]
	fields := make(map[string]string, sec.FieldCount())

	// Parents in declaration order: a later parent overrides an earlier
	// one, own fields override all parents.
	for _, parent := range sec.Parents() {
		if _, ok := raw[parent]; !ok {
			return fmt.Errorf("section [%s] inherits from unknown section [%s]", name, parent)
		}
		if err := r.resolve(parent, raw, state); err != nil {
			return err
		}
		for k, v := range r.resolved[parent] {
			fields[k] = v
		}
	}
	for _, key := range sec.FieldNames() {
		v, _ := sec.Field(key)
		fields[key] = v
	}

	r.resolved[name] = fields
	state[name] = stateDone
	return nil
}
