// Package dap defines the Debug Adapter Protocol message shapes and the
// Content-Length wire codec used to exchange them with an IDE.
package dap

import "encoding/json"

// Message is the envelope shared by every DAP message. Type is one of
// "request", "response", or "event".
type Message struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"`
}

// Request is an inbound command from the client.
type Request struct {
	Message
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response answers a request. Message carries a human-readable error when
// Success is false.
type Response struct {
	Message
	RequestSeq int    `json:"request_seq"`
	Success    bool   `json:"success"`
	Command    string `json:"command"`
	ErrMessage string `json:"message,omitempty"`
	Body       any    `json:"body,omitempty"`
}

// Event is an unsolicited notification from the adapter.
type Event struct {
	Message
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Capabilities is the body of the initialize response.
type Capabilities struct {
	SupportsConfigurationDoneRequest   bool `json:"supportsConfigurationDoneRequest"`
	SupportsConditionalBreakpoints     bool `json:"supportsConditionalBreakpoints"`
	SupportsHitConditionalBreakpoints  bool `json:"supportsHitConditionalBreakpoints"`
	SupportsEvaluateForHovers          bool `json:"supportsEvaluateForHovers"`
	SupportsSetVariable                bool `json:"supportsSetVariable"`
	SupportsCompletionsRequest         bool `json:"supportsCompletionsRequest"`
	SupportsLogPoints                  bool `json:"supportsLogPoints"`
	SupportsTerminateRequest           bool `json:"supportsTerminateRequest"`
	SupportTerminateDebuggee           bool `json:"supportTerminateDebuggee"`
	SupportsBreakpointLocationsRequest bool `json:"supportsBreakpointLocationsRequest"`
	SupportsFunctionBreakpoints        bool `json:"supportsFunctionBreakpoints"`
	SupportsStepBack                   bool `json:"supportsStepBack"`
	SupportsRestartFrame               bool `json:"supportsRestartFrame"`
	SupportsGotoTargetsRequest         bool `json:"supportsGotoTargetsRequest"`
	SupportsDataBreakpoints            bool `json:"supportsDataBreakpoints"`
	SupportsDisassembleRequest         bool `json:"supportsDisassembleRequest"`
	SupportsCancelRequest              bool `json:"supportsCancelRequest"`
}

// Source identifies a story file.
type Source struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// SourceBreakpoint is one entry in a setBreakpoints request.
type SourceBreakpoint struct {
	Line         int    `json:"line"`
	Condition    string `json:"condition,omitempty"`
	HitCondition string `json:"hitCondition,omitempty"`
	LogMessage   string `json:"logMessage,omitempty"`
}

// Breakpoint is the adapter's view of a set breakpoint, echoed back to the
// client.
type Breakpoint struct {
	Verified bool    `json:"verified"`
	Line     int     `json:"line,omitempty"`
	Source   *Source `json:"source,omitempty"`
}

// StackFrame is one synthetic frame of the passage call stack.
type StackFrame struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Source *Source `json:"source,omitempty"`
	Line   int     `json:"line"`
	Column int     `json:"column"`
}

// Scope groups the variables visible from a frame.
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
	Expensive          bool   `json:"expensive"`
}

// Variable is one serialized value record.
type Variable struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// Thread is the single synthetic story thread.
type Thread struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CompletionItem is one completions result entry.
type CompletionItem struct {
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

// BreakpointLocation is one breakpointLocations result entry.
type BreakpointLocation struct {
	Line int `json:"line"`
}

// Request argument bodies.

type InitializeArguments struct {
	ClientID      string `json:"clientID,omitempty"`
	AdapterID     string `json:"adapterID,omitempty"`
	LinesStartAt1 bool   `json:"linesStartAt1,omitempty"`
}

type LaunchArguments struct {
	Program     string `json:"program"`
	StopOnEntry bool   `json:"stopOnEntry,omitempty"`
	Dialect     string `json:"dialect,omitempty"`
}

type SetBreakpointsArguments struct {
	Source      Source             `json:"source"`
	Breakpoints []SourceBreakpoint `json:"breakpoints,omitempty"`
	Lines       []int              `json:"lines,omitempty"`
}

type StackTraceArguments struct {
	ThreadID   int `json:"threadId"`
	StartFrame int `json:"startFrame,omitempty"`
	Levels     int `json:"levels,omitempty"`
}

type ScopesArguments struct {
	FrameID int `json:"frameId"`
}

type VariablesArguments struct {
	VariablesReference int `json:"variablesReference"`
}

type SetVariableArguments struct {
	VariablesReference int    `json:"variablesReference"`
	Name               string `json:"name"`
	Value              string `json:"value"`
}

type EvaluateArguments struct {
	Expression string `json:"expression"`
	FrameID    int    `json:"frameId,omitempty"`
	Context    string `json:"context,omitempty"`
}

type CompletionsArguments struct {
	Text   string `json:"text"`
	Column int    `json:"column"`
}

type SourceArguments struct {
	Source          *Source `json:"source,omitempty"`
	SourceReference int     `json:"sourceReference,omitempty"`
}

type BreakpointLocationsArguments struct {
	Source  Source `json:"source"`
	Line    int    `json:"line"`
	EndLine int    `json:"endLine,omitempty"`
}

type ContinueArguments struct {
	ThreadID int `json:"threadId"`
}

type TerminateArguments struct {
	Restart bool `json:"restart,omitempty"`
}

// Response bodies.

type SetBreakpointsResponseBody struct {
	Breakpoints []Breakpoint `json:"breakpoints"`
}

type StackTraceResponseBody struct {
	StackFrames []StackFrame `json:"stackFrames"`
	TotalFrames int          `json:"totalFrames"`
}

type ScopesResponseBody struct {
	Scopes []Scope `json:"scopes"`
}

type VariablesResponseBody struct {
	Variables []Variable `json:"variables"`
}

type SetVariableResponseBody struct {
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference,omitempty"`
}

type EvaluateResponseBody struct {
	Result             string `json:"result"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

type CompletionsResponseBody struct {
	Targets []CompletionItem `json:"targets"`
}

type ThreadsResponseBody struct {
	Threads []Thread `json:"threads"`
}

type ContinueResponseBody struct {
	AllThreadsContinued bool `json:"allThreadsContinued"`
}

type SourceResponseBody struct {
	Content string `json:"content"`
}

type BreakpointLocationsResponseBody struct {
	Breakpoints []BreakpointLocation `json:"breakpoints"`
}

// Event bodies.

type StoppedEventBody struct {
	Reason            string `json:"reason"`
	ThreadID          int    `json:"threadId"`
	AllThreadsStopped bool   `json:"allThreadsStopped"`
	Description       string `json:"description,omitempty"`
}

type OutputEventBody struct {
	Category string `json:"category,omitempty"`
	Output   string `json:"output"`
}

type TerminatedEventBody struct{}

type ExitedEventBody struct {
	ExitCode int `json:"exitCode"`
}
