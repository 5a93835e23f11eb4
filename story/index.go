package story

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dgryski/go-farm"
	"github.com/rs/zerolog/log"
)

// Dialect selects the passage-declaration syntax the index scans for.
// The scanner is a per-line lexical pass, deliberately decoupled from any
// real script compiler; it only finds declarations and their lines.
type Dialect string

const (
	// DialectTwee matches ":: PassageName" headers.
	DialectTwee Dialect = "twee"
	// DialectInk matches "== knot ==" / "=== knot ===" headers.
	DialectInk Dialect = "ink"
)

var (
	tweeHeader = regexp.MustCompile(`^::\s*([^\[\{]+?)\s*(?:\[.*\])?\s*(?:\{.*\})?\s*$`)
	inkHeader  = regexp.MustCompile(`^=+\s*([A-Za-z_][A-Za-z0-9_]*)\s*=*\s*$`)
)

// Location is where a passage is declared.
type Location struct {
	File string
	Line int
}

// Index maps passage names to their declaration sites across one or more
// story files. Files are fingerprinted so rescans skip unchanged content.
type Index struct {
	dialect      Dialect
	passages     map[string]Location
	fingerprints map[string]uint64
}

func NewIndex(dialect Dialect) *Index {
	if dialect == "" {
		dialect = DialectTwee
	}
	return &Index{
		dialect:      dialect,
		passages:     make(map[string]Location),
		fingerprints: make(map[string]uint64),
	}
}

// DetectDialect picks a dialect from the file extension, defaulting to twee.
func DetectDialect(path string) Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ink":
		return DialectInk
	default:
		return DialectTwee
	}
}

// ScanFile indexes every passage declaration in path. Re-scanning a file
// whose contents are unchanged is a no-op; a changed file replaces its
// previous entries.
func (ix *Index) ScanFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read story file: %w", err)
	}
	fp := farm.Hash64(data)
	if prev, ok := ix.fingerprints[path]; ok && prev == fp {
		log.Trace().Str("file", path).Msg("index: file unchanged, skipping scan")
		return nil
	}
	for name, loc := range ix.passages {
		if loc.File == path {
			delete(ix.passages, name)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if name, ok := ix.matchHeader(scanner.Text()); ok {
			ix.passages[name] = Location{File: path, Line: lineNo}
		}
	}
	ix.fingerprints[path] = fp
	log.Debug().Str("file", path).Int("passages", len(ix.passages)).Msg("index: scanned story file")
	return nil
}

func (ix *Index) matchHeader(line string) (string, bool) {
	switch ix.dialect {
	case DialectInk:
		if !strings.HasPrefix(line, "==") {
			return "", false
		}
		if m := inkHeader.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], true
		}
	default:
		if !strings.HasPrefix(line, "::") {
			return "", false
		}
		if m := tweeHeader.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// Add registers a passage location directly, bypassing the scanner.
// Runtimes that synthesize passages at load time use this.
func (ix *Index) Add(name string, loc Location) {
	ix.passages[name] = loc
}

// Lookup finds the declaration site of a passage.
func (ix *Index) Lookup(name string) (Location, bool) {
	loc, ok := ix.passages[name]
	return loc, ok
}

// Passages returns every indexed passage name, unordered.
func (ix *Index) Passages() []string {
	out := make([]string, 0, len(ix.passages))
	for name := range ix.passages {
		out = append(out, name)
	}
	return out
}

// Locations returns the full name → location map. Callers must not
// mutate it.
func (ix *Index) Locations() map[string]Location {
	return ix.passages
}
