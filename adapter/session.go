package adapter

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fabledbg-dev/fabledbg/dap"
	"github.com/fabledbg-dev/fabledbg/debug"
	"github.com/fabledbg-dev/fabledbg/story"
)

// ErrTerminated unwinds the runtime's run loop when the client terminates
// or disconnects while the story is paused.
var ErrTerminated = errors.New("session terminated")

// RuntimeFactory builds the story runtime a launch request will drive.
type RuntimeFactory func(dialect story.Dialect) story.Runtime

// Session owns one debug session: the protocol state machine plus the
// per-session stores. All fields are mutated only from the single
// dispatch thread; the only suspension point is the nested pause loop in
// enterPause, which re-enters the same dispatch routine synchronously.
type Session struct {
	reader *bufio.Reader
	writer io.Writer

	id  string
	seq int

	initialized       bool
	configurationDone bool
	paused            bool
	resume            bool
	terminated        bool
	launched          bool

	eval        *debug.Evaluator
	breakpoints *debug.BreakpointStore
	stack       *debug.StackTracker
	vars        *debug.Virtualizer
	interceptor *debug.Interceptor

	newRuntime RuntimeFactory
	runtime    story.Runtime
	index      *story.Index
	program    string

	// exit is swapped out by tests; disconnect calls it.
	exit func(code int)
}

// NewSession builds a session with fresh per-session stores. Each client
// (stdio, or one TCP connection) gets its own; nothing survives a
// reconnect.
func NewSession(r io.Reader, w io.Writer, factory RuntimeFactory) *Session {
	eval := debug.NewEvaluator(0)
	return &Session{
		reader:      bufio.NewReaderSize(r, 64*1024),
		writer:      w,
		id:          uuid.NewString(),
		eval:        eval,
		breakpoints: debug.NewBreakpointStore(eval),
		stack:       debug.NewStackTracker(),
		vars:        debug.NewVirtualizer(),
		newRuntime:  factory,
		exit:        os.Exit,
	}
}

// Run is the outer read-dispatch loop. Malformed messages are dropped
// with a stderr diagnostic; only transport-fatal errors (EOF, closed
// connection) end the loop.
func (s *Session) Run() error {
	log.Info().Str("session", s.id).Msg("debug session started")
	for {
		body, err := dap.ReadMessage(s.reader)
		if err != nil {
			var malformed *dap.ErrMalformed
			if errors.As(err, &malformed) {
				log.Warn().Str("session", s.id).Err(err).Msg("dropping malformed message")
				continue
			}
			s.terminated = true
			if err == io.EOF {
				log.Info().Str("session", s.id).Msg("client disconnected")
				return nil
			}
			return err
		}
		s.dispatchRaw(body)
	}
}

func (s *Session) dispatchRaw(body []byte) {
	req, err := dap.DecodeRequest(body)
	if err != nil {
		log.Warn().Str("session", s.id).Err(err).Msg("dropping undecodable message")
		return
	}
	if req == nil {
		return
	}
	s.dispatch(req)
}

// dispatch routes one request. Handler panics become error responses;
// the loop never dies on a handler failure.
func (s *Session) dispatch(req *dap.Request) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session", s.id).Str("command", req.Command).
				Interface("panic", r).Msg("handler panicked")
			s.sendError(req, fmt.Sprintf("%v", r))
		}
	}()
	log.Trace().Str("session", s.id).Str("command", req.Command).Int("seq", req.Seq).Msg("dispatch")

	switch req.Command {
	case "initialize":
		s.handleInitialize(req)
	case "launch":
		s.handleLaunch(req)
	case "attach":
		s.sendError(req, "attach is not supported; use a launch configuration")
	case "setBreakpoints":
		s.handleSetBreakpoints(req)
	case "setFunctionBreakpoints", "setExceptionBreakpoints":
		s.sendResponse(req, dap.SetBreakpointsResponseBody{Breakpoints: []dap.Breakpoint{}})
	case "configurationDone":
		s.handleConfigurationDone(req)
	case "threads":
		s.sendResponse(req, dap.ThreadsResponseBody{
			Threads: []dap.Thread{{ID: 1, Name: "story"}},
		})
	case "stackTrace":
		s.handleStackTrace(req)
	case "scopes":
		s.handleScopes(req)
	case "variables":
		s.handleVariables(req)
	case "setVariable":
		s.handleSetVariable(req)
	case "continue":
		if s.interceptor == nil {
			s.sendError(req, "no story is running")
			return
		}
		s.interceptor.ClearStep()
		s.sendResponse(req, dap.ContinueResponseBody{AllThreadsContinued: true})
		s.resume = true
	case "next":
		if s.interceptor == nil {
			s.sendError(req, "no story is running")
			return
		}
		s.interceptor.ArmStep(debug.StepOver)
		s.sendResponse(req, nil)
		s.resume = true
	case "stepIn":
		if s.interceptor == nil {
			s.sendError(req, "no story is running")
			return
		}
		s.interceptor.ArmStep(debug.StepInto)
		s.sendResponse(req, nil)
		s.resume = true
	case "stepOut":
		if s.interceptor == nil {
			s.sendError(req, "no story is running")
			return
		}
		s.interceptor.ArmStep(debug.StepOut)
		s.sendResponse(req, nil)
		s.resume = true
	case "pause":
		if s.interceptor == nil {
			s.sendError(req, "no story is running")
			return
		}
		s.interceptor.RequestPause()
		s.sendResponse(req, nil)
	case "evaluate":
		s.handleEvaluate(req)
	case "completions":
		s.handleCompletions(req)
	case "source":
		s.handleSource(req)
	case "breakpointLocations":
		s.handleBreakpointLocations(req)
	case "disconnect":
		s.sendResponse(req, nil)
		s.terminated = true
		log.Info().Str("session", s.id).Msg("disconnect requested, exiting")
		s.exit(0)
	case "terminate":
		s.sendResponse(req, nil)
		s.terminated = true
		s.resume = true
		s.sendEvent("terminated", dap.TerminatedEventBody{})
	default:
		// Unknown commands get a generic success so newer clients keep
		// working.
		log.Debug().Str("session", s.id).Str("command", req.Command).Msg("unknown command, acking")
		s.sendResponse(req, nil)
	}
}

func (s *Session) handleInitialize(req *dap.Request) {
	s.initialized = true
	s.sendResponse(req, dap.Capabilities{
		SupportsConfigurationDoneRequest:   true,
		SupportsConditionalBreakpoints:     true,
		SupportsHitConditionalBreakpoints:  true,
		SupportsEvaluateForHovers:          true,
		SupportsSetVariable:                true,
		SupportsCompletionsRequest:         true,
		SupportsLogPoints:                  true,
		SupportsTerminateRequest:           true,
		SupportTerminateDebuggee:           true,
		SupportsBreakpointLocationsRequest: true,
	})
	s.sendEvent("initialized", nil)
}

func (s *Session) handleLaunch(req *dap.Request) {
	var args dap.LaunchArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad launch arguments: "+err.Error())
		return
	}
	if args.Program == "" {
		s.sendError(req, "launch requires a program")
		return
	}

	dialect := story.Dialect(args.Dialect)
	if dialect == "" {
		dialect = story.DetectDialect(args.Program)
	}
	rt := s.newRuntime(dialect)

	s.index = story.NewIndex(dialect)
	if err := s.index.ScanFile(args.Program); err != nil {
		s.sendError(req, "Failed to load story: "+err.Error())
		return
	}
	if err := rt.LoadFile(args.Program); err != nil {
		s.sendError(req, "Failed to load story: "+err.Error())
		return
	}

	ic := debug.NewInterceptor(rt, s.index, s.breakpoints, s.stack, s.eval)
	ic.OnStop(s.enterPause)
	ic.OnOutput(func(category, text string) {
		s.sendEvent("output", dap.OutputEventBody{Category: category, Output: text})
	})
	rt.Bind(ic)

	s.runtime = rt
	s.interceptor = ic
	s.program = args.Program
	s.launched = true

	if args.StopOnEntry {
		ic.ArmStep(debug.StepInto)
	}
	log.Info().Str("session", s.id).Str("program", args.Program).
		Str("dialect", string(dialect)).Msg("story launched")
	s.sendResponse(req, nil)
}

func (s *Session) handleSetBreakpoints(req *dap.Request) {
	var args dap.SetBreakpointsArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad setBreakpoints arguments: "+err.Error())
		return
	}
	specs := make([]debug.Breakpoint, 0, len(args.Breakpoints)+len(args.Lines))
	for _, sb := range args.Breakpoints {
		specs = append(specs, debug.Breakpoint{
			Line:         sb.Line,
			Condition:    sb.Condition,
			HitCondition: sb.HitCondition,
			LogMessage:   sb.LogMessage,
			Enabled:      true,
		})
	}
	// Older clients send bare line lists.
	for _, line := range args.Lines {
		specs = append(specs, debug.Breakpoint{Line: line, Enabled: true})
	}
	s.breakpoints.SetFile(args.Source.Path, specs)

	// Every requested line is reported verified; placement is trusted,
	// not checked against the passage index.
	out := make([]dap.Breakpoint, 0, len(specs))
	for _, spec := range specs {
		out = append(out, dap.Breakpoint{
			Verified: true,
			Line:     spec.Line,
			Source:   &dap.Source{Name: filepath.Base(args.Source.Path), Path: args.Source.Path},
		})
	}
	s.sendResponse(req, dap.SetBreakpointsResponseBody{Breakpoints: out})
}

func (s *Session) handleConfigurationDone(req *dap.Request) {
	s.configurationDone = true
	s.sendResponse(req, nil)
	if s.runtime == nil {
		return
	}
	// Start blocks through every navigation, including nested pauses,
	// until the story ends, a choice blocks it, or the session dies.
	err := s.runtime.Start()
	switch {
	case errors.Is(err, ErrTerminated):
		log.Debug().Str("session", s.id).Msg("runtime unwound after terminate")
	case err != nil:
		s.sendEvent("output", dap.OutputEventBody{Category: "stderr", Output: "story error: " + err.Error() + "\n"})
		s.sendEvent("terminated", dap.TerminatedEventBody{})
	case s.runtime.Ended():
		s.sendEvent("terminated", dap.TerminatedEventBody{})
	}
}

func (s *Session) handleStackTrace(req *dap.Request) {
	frames := s.stack.Frames()
	out := make([]dap.StackFrame, 0, len(frames))
	for _, f := range frames {
		out = append(out, dap.StackFrame{
			ID:     f.ID,
			Name:   f.Passage,
			Source: &dap.Source{Name: f.SourceName(), Path: f.File},
			Line:   f.Line,
			Column: 1,
		})
	}
	s.sendResponse(req, dap.StackTraceResponseBody{StackFrames: out, TotalFrames: len(out)})
}

func (s *Session) handleScopes(req *dap.Request) {
	var args dap.ScopesArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad scopes arguments: "+err.Error())
		return
	}
	scopes := []dap.Scope{}
	if frame, ok := s.stack.Lookup(args.FrameID); ok {
		scopes = append(scopes, dap.Scope{Name: "Locals", VariablesReference: s.vars.Register(frame.Locals)})
		if len(frame.Temps) > 0 {
			scopes = append(scopes, dap.Scope{Name: "Temps", VariablesReference: s.vars.Register(frame.Temps)})
		}
	}
	if s.runtime != nil {
		scopes = append(scopes, dap.Scope{Name: "Story", VariablesReference: s.vars.Register(s.runtime.State())})
	}
	s.sendResponse(req, dap.ScopesResponseBody{Scopes: scopes})
}

func (s *Session) handleVariables(req *dap.Request) {
	var args dap.VariablesArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad variables arguments: "+err.Error())
		return
	}
	entries, ok := s.vars.Expand(args.VariablesReference)
	if !ok {
		s.sendError(req, fmt.Sprintf("unknown variablesReference %d", args.VariablesReference))
		return
	}
	s.sendResponse(req, dap.VariablesResponseBody{Variables: entries})
}

func (s *Session) handleSetVariable(req *dap.Request) {
	var args dap.SetVariableArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad setVariable arguments: "+err.Error())
		return
	}
	container, ok := s.vars.Container(args.VariablesReference)
	if !ok {
		s.sendError(req, fmt.Sprintf("unknown variablesReference %d", args.VariablesReference))
		return
	}
	value, err := s.eval.Eval(args.Value, nil)
	if err != nil {
		s.sendError(req, "cannot parse value: "+err.Error())
		return
	}
	table, ok := container.(map[string]any)
	if !ok {
		s.sendError(req, "container does not support assignment")
		return
	}
	table[args.Name] = value
	record := s.vars.Serialize(args.Name, value)
	s.sendResponse(req, dap.SetVariableResponseBody{
		Value:              record.Value,
		Type:               record.Type,
		VariablesReference: record.VariablesReference,
	})
}

func (s *Session) handleEvaluate(req *dap.Request) {
	var args dap.EvaluateArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad evaluate arguments: "+err.Error())
		return
	}
	if args.Expression == "" {
		s.sendError(req, "evaluate requires an expression")
		return
	}
	if s.interceptor == nil {
		s.sendError(req, "no story is running")
		return
	}
	result, err := s.interceptor.Evaluate(args.Expression, args.FrameID)
	record := s.vars.SerializeEvalResult(result, err)
	s.sendResponse(req, dap.EvaluateResponseBody{
		Result:             record.Value,
		Type:               record.Type,
		VariablesReference: record.VariablesReference,
	})
}

func (s *Session) handleCompletions(req *dap.Request) {
	var args dap.CompletionsArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad completions arguments: "+err.Error())
		return
	}
	targets := []dap.CompletionItem{}
	if s.runtime != nil {
		prefix := args.Text
		for name := range s.runtime.State() {
			if prefix == "" || (len(name) >= len(prefix) && name[:len(prefix)] == prefix) {
				targets = append(targets, dap.CompletionItem{Label: name, Type: "variable"})
			}
		}
	}
	s.sendResponse(req, dap.CompletionsResponseBody{Targets: targets})
}

func (s *Session) handleSource(req *dap.Request) {
	var args dap.SourceArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad source arguments: "+err.Error())
		return
	}
	if args.Source == nil || args.Source.Path == "" {
		s.sendError(req, "source requires a path")
		return
	}
	content, err := os.ReadFile(args.Source.Path)
	if err != nil {
		s.sendError(req, "cannot read source: "+err.Error())
		return
	}
	s.sendResponse(req, dap.SourceResponseBody{Content: string(content)})
}

func (s *Session) handleBreakpointLocations(req *dap.Request) {
	var args dap.BreakpointLocationsArguments
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		s.sendError(req, "bad breakpointLocations arguments: "+err.Error())
		return
	}
	// The requested line is echoed as the only candidate; reachability is
	// not checked.
	s.sendResponse(req, dap.BreakpointLocationsResponseBody{
		Breakpoints: []dap.BreakpointLocation{{Line: args.Line}},
	})
}

// enterPause is the interceptor's StopFunc: it announces the stop and
// re-enters the dispatch loop synchronously until a resume command flips
// the flag. Nesting is exactly one level deep — resume handlers inside
// this loop only set the flag and return.
func (s *Session) enterPause(reason debug.StopReason, loc story.Location) error {
	s.paused = true
	s.resume = false
	s.sendEvent("stopped", dap.StoppedEventBody{
		Reason:            string(reason),
		ThreadID:          1,
		AllThreadsStopped: true,
	})
	log.Debug().Str("session", s.id).Str("reason", string(reason)).
		Str("file", loc.File).Int("line", loc.Line).Msg("paused")

	for !s.resume && !s.terminated {
		body, err := dap.ReadMessage(s.reader)
		if err != nil {
			var malformed *dap.ErrMalformed
			if errors.As(err, &malformed) {
				log.Warn().Str("session", s.id).Err(err).Msg("dropping malformed message while paused")
				continue
			}
			s.terminated = true
			break
		}
		s.dispatchRaw(body)
	}
	s.paused = false
	if s.terminated {
		return ErrTerminated
	}
	return nil
}

func (s *Session) nextSeq() int {
	s.seq++
	return s.seq
}

func (s *Session) sendResponse(req *dap.Request, body any) {
	resp := dap.Response{
		Message:    dap.Message{Seq: s.nextSeq(), Type: "response"},
		RequestSeq: req.Seq,
		Success:    true,
		Command:    req.Command,
		Body:       body,
	}
	s.send(resp)
}

func (s *Session) sendError(req *dap.Request, message string) {
	resp := dap.Response{
		Message:    dap.Message{Seq: s.nextSeq(), Type: "response"},
		RequestSeq: req.Seq,
		Success:    false,
		Command:    req.Command,
		ErrMessage: message,
	}
	s.send(resp)
}

func (s *Session) sendEvent(name string, body any) {
	ev := dap.Event{
		Message: dap.Message{Seq: s.nextSeq(), Type: "event"},
		Event:   name,
		Body:    body,
	}
	s.send(ev)
}

func (s *Session) send(msg any) {
	if err := dap.WriteMessage(s.writer, msg); err != nil {
		log.Warn().Str("session", s.id).Err(err).Msg("write failed")
	}
}
