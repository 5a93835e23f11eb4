// Package story defines the contracts the debug adapter has with the
// external story runtime: the navigation/state interface, the passage
// location index, and state snapshotting. The adapter never executes
// story logic itself; it only wraps a Runtime's navigation boundary.
package story

// Choice is one selectable option at the current passage.
type Choice struct {
	Index int
	Text  string
	// Target names the passage the choice navigates to, when known.
	Target string
}

// Navigator receives every passage transition. The debug adapter's
// interceptor implements it and delegates back to the runtime's raw
// entry; a runtime with no debugger attached can use PassthroughNavigator.
type Navigator interface {
	Navigate(passage string) error
}

// Runtime is the story interpreter the adapter wraps. All transitions —
// start, choices, tunnel calls, thread starts — must flow through the
// Navigator bound at construction time so the debugger observes them.
type Runtime interface {
	// LoadFile loads and prepares a story file.
	LoadFile(path string) error
	// Bind installs the navigation decorator. Must be called once,
	// before Start.
	Bind(nav Navigator)
	// Start begins execution and runs until the story ends or blocks on
	// a choice.
	Start() error
	// Enter is the raw passage entry point, invoked by the Navigator
	// after the debugger has run its checks.
	Enter(passage string) error
	// State exposes the live story variable map.
	State() map[string]any
	// CurrentPassage reports the passage being executed, if any.
	CurrentPassage() (string, bool)
	// Choices lists the options at the current pause point.
	Choices() []Choice
	// Choose takes a choice and resumes execution.
	Choose(index int) error
	// Ended reports whether the story has run to completion.
	Ended() bool
}

// PassthroughNavigator routes transitions straight into the runtime.
type PassthroughNavigator struct {
	Runtime Runtime
}

func (p PassthroughNavigator) Navigate(passage string) error {
	return p.Runtime.Enter(passage)
}
