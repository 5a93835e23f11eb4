package story

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/shamaton/msgpack/v2"
)

// PlaybackRuntime is a minimal Runtime implementation: it walks the
// passages of a story file in declaration order, entering each through
// the bound Navigator. It stands in for the real interpreter, which is an
// external collaborator; the adapter only needs the navigation/state
// contract to hold.
type PlaybackRuntime struct {
	index   *Index
	nav     Navigator
	order   []string
	vars    map[string]any
	pos     int
	current string
	started bool
	ended   bool
}

func NewPlaybackRuntime(dialect Dialect) *PlaybackRuntime {
	return &PlaybackRuntime{
		index: NewIndex(dialect),
		vars:  make(map[string]any),
	}
}

// LoadFile scans the story file and fixes the playback order by
// declaration line.
func (r *PlaybackRuntime) LoadFile(path string) error {
	if err := r.index.ScanFile(path); err != nil {
		return err
	}
	locs := r.index.Locations()
	if len(locs) == 0 {
		return fmt.Errorf("no passages found in %s", path)
	}
	r.order = r.order[:0]
	for name := range locs {
		r.order = append(r.order, name)
	}
	sort.Slice(r.order, func(i, j int) bool {
		a, b := locs[r.order[i]], locs[r.order[j]]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return nil
}

// Index exposes the passage location index built during LoadFile.
func (r *PlaybackRuntime) Index() *Index {
	return r.index
}

func (r *PlaybackRuntime) Bind(nav Navigator) {
	r.nav = nav
}

// Start walks every passage in order through the Navigator. A debugger
// pause blocks inside Navigate, which suspends the walk at exactly that
// transition.
func (r *PlaybackRuntime) Start() error {
	if r.nav == nil {
		r.nav = PassthroughNavigator{Runtime: r}
	}
	r.started = true
	for r.pos < len(r.order) {
		name := r.order[r.pos]
		r.pos++
		if err := r.nav.Navigate(name); err != nil {
			return err
		}
	}
	r.ended = true
	return nil
}

// Enter is the raw passage entry: it records the visit in story state.
func (r *PlaybackRuntime) Enter(passage string) error {
	if _, ok := r.index.Lookup(passage); !ok {
		return fmt.Errorf("unknown passage %q", passage)
	}
	r.current = passage
	r.vars["current_passage"] = passage
	visits, _ := r.vars["visits"].(int)
	r.vars["visits"] = visits + 1
	return nil
}

func (r *PlaybackRuntime) State() map[string]any {
	return r.vars
}

func (r *PlaybackRuntime) CurrentPassage() (string, bool) {
	if r.current == "" {
		return "", false
	}
	return r.current, true
}

// Choices is always empty: playback stories are linear.
func (r *PlaybackRuntime) Choices() []Choice {
	return nil
}

func (r *PlaybackRuntime) Choose(index int) error {
	return fmt.Errorf("no choice %d available", index)
}

func (r *PlaybackRuntime) Ended() bool {
	return r.ended
}

// Save serializes story variables so a session can be restored later.
func (r *PlaybackRuntime) Save() ([]byte, error) {
	var buf bytes.Buffer
	if err := msgpack.MarshalWrite(&buf, r.vars); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces story variables from a Save payload.
func (r *PlaybackRuntime) Restore(data []byte) error {
	var vars map[string]any
	if err := msgpack.UnmarshalRead(bytes.NewReader(data), &vars); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	r.vars = normalizeMap(vars)
	return nil
}
