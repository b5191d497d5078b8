package ltx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single config line; real game configs stay well under this.
const maxLineSize = 1 << 20

// ParseFile parses the LTX file at path, splicing #include directives
// relative to the including file. Include cycles and duplicate section names
// are errors.
func ParseFile(path string) (*File, error) {
	p := &parser{
		file:     newFile(),
		visiting: make(map[string]bool),
	}
	if err := p.parsePath(path); err != nil {
		return nil, err
	}
	return p.file, nil
}

// Parse parses LTX from r. The name is used in error messages and as the
// path hint for resolving #include directives (relative to its directory).
func Parse(r io.Reader, name string) (*File, error) {
	p := &parser{
		file:     newFile(),
		visiting: make(map[string]bool),
	}
	if err := p.parseReader(r, name); err != nil {
		return nil, err
	}
	return p.file, nil
}

type parser struct {
	file     *File
	visiting map[string]bool // include cycle guard, keyed by cleaned path
	current  *Section
}

func (p *parser) parsePath(path string) error {
	clean := filepath.Clean(path)
	if p.visiting[clean] {
		return fmt.Errorf("include cycle through %s", clean)
	}
	p.visiting[clean] = true
	defer delete(p.visiting, clean)

	f, err := os.Open(clean)
	if err != nil {
		return fmt.Errorf("opening ltx file: %w", err)
	}
	defer f.Close()

	return p.parseReader(f, clean)
}

func (p *parser) parseReader(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		line = strings.TrimSpace(stripComment(line))
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "#include"):
			if err := p.handleInclude(line, name, lineNo); err != nil {
				return err
			}
		case strings.HasPrefix(line, "["):
			if err := p.handleHeader(line, name, lineNo); err != nil {
				return err
			}
		default:
			if err := p.handleField(line, name, lineNo); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

func (p *parser) handleInclude(line, name string, lineNo int) error {
	arg := strings.TrimSpace(strings.TrimPrefix(line, "#include"))
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return fmt.Errorf("%s:%d: malformed #include directive: %s", name, lineNo, line)
	}
	rel := filepath.FromSlash(strings.ReplaceAll(arg[1:len(arg)-1], `\`, "/"))
	if rel == "" {
		return fmt.Errorf("%s:%d: empty #include path", name, lineNo)
	}

	// The included file opens its own section context.
	prev := p.current
	p.current = nil
	err := p.parsePath(filepath.Join(filepath.Dir(name), rel))
	p.current = prev
	if err != nil {
		return fmt.Errorf("%s:%d: %w", name, lineNo, err)
	}
	return nil
}

func (p *parser) handleHeader(line, name string, lineNo int) error {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return fmt.Errorf("%s:%d: unterminated section header: %s", name, lineNo, line)
	}

	secName := strings.TrimSpace(line[1:end])
	if secName == "" {
		return fmt.Errorf("%s:%d: empty section name", name, lineNo)
	}

	var parents []string
	rest := strings.TrimSpace(line[end+1:])
	if rest != "" {
		if !strings.HasPrefix(rest, ":") {
			return fmt.Errorf("%s:%d: unexpected trailing text after [%s]: %s", name, lineNo, secName, rest)
		}
		for _, parent := range strings.Split(rest[1:], ",") {
			parent = strings.TrimSpace(parent)
			if parent != "" {
				parents = append(parents, parent)
			}
		}
	}

	sec := newSection(secName, parents)
	if !p.file.add(sec) {
		return fmt.Errorf("%s:%d: duplicate section [%s]", name, lineNo, secName)
	}
	p.current = sec
	return nil
}

func (p *parser) handleField(line, name string, lineNo int) error {
	if p.current == nil {
		return fmt.Errorf("%s:%d: field outside of any section: %s", name, lineNo, line)
	}

	key := line
	value := ""
	if eq := strings.IndexByte(line, '='); eq >= 0 {
		key = strings.TrimSpace(line[:eq])
		value = strings.TrimSpace(line[eq+1:])
	}
	if key == "" {
		return fmt.Errorf("%s:%d: empty field key: %s", name, lineNo, line)
	}

	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}

	p.current.set(key, value)
	return nil
}

// stripComment cuts the line at the first ';' or '//' that is not inside a
// quoted value.
func stripComment(line string) string {
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i]
			}
		case '/':
			if !inQuote && i+1 < len(line) && line[i+1] == '/' {
				return line[:i]
			}
		}
	}
	return line
}
