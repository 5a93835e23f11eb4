// Package debug holds the adapter-side debugging machinery: the breakpoint
// store, the synthetic passage call stack, the variable virtualizer, the
// sandboxed expression evaluator, and the runtime interceptor that ties
// them to the story runtime's navigation boundary.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Breakpoint is the client-supplied spec for one (file, line) breakpoint.
type Breakpoint struct {
	File         string
	Line         int
	Condition    string
	HitCondition string
	LogMessage   string
	Enabled      bool
}

// BreakpointStore owns every breakpoint spec plus the per-(file,line) hit
// counters. Counters outlive individual ShouldBreak calls and are reset
// only when that file's breakpoint set is replaced.
type BreakpointStore struct {
	byFile map[string]map[int]*Breakpoint
	hits   map[string]map[int]int
	eval   *Evaluator
}

func NewBreakpointStore(eval *Evaluator) *BreakpointStore {
	return &BreakpointStore{
		byFile: make(map[string]map[int]*Breakpoint),
		hits:   make(map[string]map[int]int),
		eval:   eval,
	}
}

// SetFile replaces the whole breakpoint set for path and resets that
// file's hit counters. There is no incremental add/remove.
func (s *BreakpointStore) SetFile(path string, bps []Breakpoint) {
	lines := make(map[int]*Breakpoint, len(bps))
	for i := range bps {
		bp := bps[i]
		bp.File = path
		lines[bp.Line] = &bp
	}
	s.byFile[path] = lines
	s.hits[path] = make(map[int]int)
}

// Lookup returns the breakpoint at (file, line), if any.
func (s *BreakpointStore) Lookup(file string, line int) (*Breakpoint, bool) {
	bp, ok := s.byFile[file][line]
	return bp, ok
}

// SetEnabled flips a breakpoint without removing it. Disabled breakpoints
// never fire and do not advance their hit counter.
func (s *BreakpointStore) SetEnabled(file string, line int, enabled bool) bool {
	bp, ok := s.byFile[file][line]
	if !ok {
		return false
	}
	bp.Enabled = enabled
	return true
}

// HitCount reports the running counter for (file, line).
func (s *BreakpointStore) HitCount(file string, line int) int {
	return s.hits[file][line]
}

// ShouldBreak evaluates the breakpoint at (file, line) against state.
// It returns whether execution should stop and, for logpoints, the
// formatted message to emit instead of stopping. Evaluation order: hit
// counting, hit-condition gate, condition, logpoint.
func (s *BreakpointStore) ShouldBreak(file string, line int, state map[string]any) (bool, string) {
	bp, ok := s.byFile[file][line]
	if !ok || !bp.Enabled {
		return false, ""
	}

	s.hits[file][line]++
	count := s.hits[file][line]

	if bp.HitCondition != "" && !hitConditionMet(bp.HitCondition, count) {
		return false, ""
	}

	if bp.Condition != "" {
		hit, err := s.eval.EvalBool(bp.Condition, state)
		if err != nil {
			// Fail safe: a broken condition never stops.
			log.Debug().Str("file", file).Int("line", line).Err(err).
				Msg("breakpoint condition failed, skipping")
			return false, ""
		}
		if !hit {
			return false, ""
		}
	}

	if bp.LogMessage != "" {
		return false, formatLogMessage(bp.LogMessage, state)
	}
	return true, ""
}

// hitConditionMet applies a hit-condition expression to the running count.
// A bare integer N matches only the Nth hit; "<op> N" applies the
// comparison. Anything unparseable defaults to "always proceed".
func hitConditionMet(cond string, count int) bool {
	cond = strings.TrimSpace(cond)
	if n, err := strconv.Atoi(cond); err == nil {
		return count == n
	}
	for _, op := range []string{">=", "<=", "==", "!=", ">", "<"} {
		if !strings.HasPrefix(cond, op) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(cond[len(op):]))
		if err != nil {
			return true
		}
		switch op {
		case ">=":
			return count >= n
		case "<=":
			return count <= n
		case "==":
			return count == n
		case "!=":
			return count != n
		case ">":
			return count > n
		case "<":
			return count < n
		}
	}
	return true
}

// formatLogMessage substitutes {name} tokens with the stringified value of
// state[name]. Tokens naming unset variables stay literal.
func formatLogMessage(template string, state map[string]any) string {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end += open
		b.WriteString(rest[:open])
		name := rest[open+1 : end]
		if v, ok := state[name]; ok {
			b.WriteString(stringifyValue(v))
		} else {
			b.WriteString(rest[open : end+1])
		}
		rest = rest[end+1:]
	}
}

func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
