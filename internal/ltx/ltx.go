// Package ltx parses the LTX section files the game engine feeds its
// configuration registry from: named [sections] with optional parent
// inheritance ([child]:parent1,parent2), key = value fields, ';' and '//'
// comments and #include splicing.
//
// The parser only builds the raw section/field structure; parent resolution
// is the registry's job (gamedata package), so a File can be inspected
// exactly as written.
package ltx

// Section is one named record: ordered fields plus the parent list from the
// header. Field values are kept as raw strings; typed reads belong to callers.
type Section struct {
	name    string
	parents []string
	fields  map[string]string
	order   []string
}

func newSection(name string, parents []string) *Section {
	return &Section{
		name:    name,
		parents: parents,
		fields:  make(map[string]string),
	}
}

// Name returns the section name as written in the header.
func (s *Section) Name() string { return s.name }

// Parents returns the parent names in declaration order.
func (s *Section) Parents() []string {
	out := make([]string, len(s.parents))
	copy(out, s.parents)
	return out
}

// Field returns the raw value of key. A key present with no '=' reads as "".
func (s *Section) Field(key string) (string, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// FieldNames returns field keys in first-seen order.
func (s *Section) FieldNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// FieldCount returns the number of distinct fields.
func (s *Section) FieldCount() int { return len(s.fields) }

func (s *Section) set(key, value string) {
	if _, exists := s.fields[key]; !exists {
		s.order = append(s.order, key)
	}
	// Duplicate key in the same section: the later line wins.
	s.fields[key] = value
}

// File is a parsed LTX tree: all sections of one root file plus everything
// spliced in via #include, in encounter order.
type File struct {
	sections map[string]*Section
	order    []string
}

func newFile() *File {
	return &File{sections: make(map[string]*Section)}
}

// Section returns the named section.
func (f *File) Section(name string) (*Section, bool) {
	s, ok := f.sections[name]
	return s, ok
}

// SectionNames returns section names in encounter order.
func (f *File) SectionNames() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// SectionCount returns the number of sections.
func (f *File) SectionCount() int { return len(f.sections) }

func (f *File) add(s *Section) bool {
	if _, exists := f.sections[s.name]; exists {
		return false
	}
	f.sections[s.name] = s
	f.order = append(f.order, s.name)
	return true
}
