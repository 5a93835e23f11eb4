package debug

import (
	"container/list"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs sandboxed watch/condition expressions
// against a map environment. Only expression-language constructs are
// available (arithmetic, comparisons, member lookup); a condition string
// can never reach host execution. Compiled programs are cached with LRU
// eviction keyed by expression text.
type Evaluator struct {
	cache     map[string]*list.Element
	evictList *list.List
	maxSize   int
}

type cacheEntry struct {
	source  string
	program *vm.Program
}

// NewEvaluator creates an evaluator caching up to maxSize compiled
// programs (0 or negative means the default size).
func NewEvaluator(maxSize int) *Evaluator {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &Evaluator{
		cache:     make(map[string]*list.Element),
		evictList: list.New(),
		maxSize:   maxSize,
	}
}

// Eval runs source against env and returns the result. Compile and
// runtime failures come back as errors, never panics.
func (e *Evaluator) Eval(source string, env map[string]any) (any, error) {
	prog, err := e.compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	if env == nil {
		env = map[string]any{}
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", source, err)
	}
	return out, nil
}

// EvalBool runs source and coerces the result to a condition truth value.
// Non-boolean results follow story truthiness: nil and false are false,
// everything else is true.
func (e *Evaluator) EvalBool(source string, env map[string]any) (bool, error) {
	out, err := e.Eval(source, env)
	if err != nil {
		return false, err
	}
	switch v := out.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	default:
		return true, nil
	}
}

func (e *Evaluator) compile(source string) (*vm.Program, error) {
	if elem, ok := e.cache[source]; ok {
		e.evictList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).program, nil
	}
	prog, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	elem := e.evictList.PushFront(&cacheEntry{source: source, program: prog})
	e.cache[source] = elem
	if e.evictList.Len() > e.maxSize {
		oldest := e.evictList.Back()
		if oldest != nil {
			e.evictList.Remove(oldest)
			delete(e.cache, oldest.Value.(*cacheEntry).source)
		}
	}
	return prog, nil
}
