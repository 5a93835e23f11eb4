package debug

import (
	"github.com/rs/zerolog/log"

	"github.com/fabledbg-dev/fabledbg/story"
)

// StepMode is the armed stepping behavior, checked at every navigation
// boundary.
type StepMode int

const (
	StepNone StepMode = iota
	StepInto
	StepOver
	StepOut
)

// StopReason labels why execution paused.
type StopReason string

const (
	StopBreakpoint StopReason = "breakpoint"
	StopStep       StopReason = "step"
	StopPause      StopReason = "pause"
)

// StopFunc is invoked when execution must pause. It blocks until the
// client resumes; the session implements it with the nested dispatch
// loop. A non-nil error aborts the navigation (session terminated or
// transport gone) and unwinds the runtime's run loop.
type StopFunc func(reason StopReason, loc story.Location) error

// OutputFunc forwards logpoint and story output to the client.
type OutputFunc func(category, text string)

// Interceptor decorates the story runtime's navigation entry point. On
// every passage transition it pushes a stack frame, evaluates
// breakpoints, applies the armed step rule, honors pending pause
// requests, and only then delegates to the runtime. It is composed via
// dependency injection: the runtime binds it as its Navigator at
// construction time.
type Interceptor struct {
	runtime     story.Runtime
	index       *story.Index
	breakpoints *BreakpointStore
	stack       *StackTracker
	eval        *Evaluator

	stepMode  StepMode
	stepDepth int
	pauseReq  bool

	onStop   StopFunc
	onOutput OutputFunc
}

func NewInterceptor(rt story.Runtime, ix *story.Index, bps *BreakpointStore, stack *StackTracker, eval *Evaluator) *Interceptor {
	return &Interceptor{
		runtime:     rt,
		index:       ix,
		breakpoints: bps,
		stack:       stack,
		eval:        eval,
	}
}

// OnStop registers the blocking pause callback.
func (ic *Interceptor) OnStop(fn StopFunc) {
	ic.onStop = fn
}

// OnOutput registers the output forwarder.
func (ic *Interceptor) OnOutput(fn OutputFunc) {
	ic.onOutput = fn
}

// Navigate implements story.Navigator.
func (ic *Interceptor) Navigate(passage string) error {
	loc, known := ic.index.Lookup(passage)
	if !known {
		log.Trace().Str("passage", passage).Msg("navigate: passage has no indexed location")
	}

	// Intra-passage progress hint from the runtime advances the line of
	// the frame we are leaving before the new frame is pushed.
	live := ic.runtime.State()
	if lineHint, ok := live["__line"].(int); ok && lineHint > 0 {
		ic.stack.UpdateCurrentLine(lineHint)
	}

	ic.stack.Push(passage, loc.File, loc.Line)
	snapshot := story.SnapshotState(live)

	stopped := false
	if stop, msg := ic.breakpoints.ShouldBreak(loc.File, loc.Line, snapshot); stop || msg != "" {
		if msg != "" && ic.onOutput != nil {
			ic.onOutput("console", msg+"\n")
		}
		if stop {
			stopped = true
			if err := ic.pause(StopBreakpoint, loc); err != nil {
				return err
			}
		}
	}

	if !stopped && ic.stepStopsAt(ic.stack.Depth()) {
		stopped = true
		if err := ic.pause(StopStep, loc); err != nil {
			return err
		}
	}

	if !stopped && ic.pauseReq {
		ic.pauseReq = false
		if err := ic.pause(StopPause, loc); err != nil {
			return err
		}
	}

	return ic.runtime.Enter(passage)
}

func (ic *Interceptor) pause(reason StopReason, loc story.Location) error {
	// Whatever command resumes us re-arms the step mode; the old arming
	// is consumed by this stop.
	ic.stepMode = StepNone
	if ic.onStop == nil {
		return nil
	}
	return ic.onStop(reason, loc)
}

// stepStopsAt applies the step-stop rule for the live depth against the
// depth captured when the step was armed.
func (ic *Interceptor) stepStopsAt(depth int) bool {
	switch ic.stepMode {
	case StepInto:
		return true
	case StepOver:
		return depth <= ic.stepDepth
	case StepOut:
		return depth <= ic.stepDepth-1
	default:
		return false
	}
}

// ArmStep captures the current depth and arms mode for the next
// transitions.
func (ic *Interceptor) ArmStep(mode StepMode) {
	ic.stepMode = mode
	ic.stepDepth = ic.stack.Depth()
}

// ClearStep disarms stepping; used by continue.
func (ic *Interceptor) ClearStep() {
	ic.stepMode = StepNone
}

// RequestPause arms a pause honored at the next navigation boundary.
// Mid-passage execution cannot be interrupted.
func (ic *Interceptor) RequestPause() {
	ic.pauseReq = true
}

// Evaluate runs an expression against current story state, optionally
// overlaid with a frame's locals and temps (which win on name collision).
func (ic *Interceptor) Evaluate(expression string, frameID int) (any, error) {
	env := story.SnapshotState(ic.runtime.State())
	if frameID != 0 {
		if frame, ok := ic.stack.Lookup(frameID); ok {
			for k, v := range frame.Locals {
				env[k] = v
			}
			for k, v := range frame.Temps {
				env[k] = v
			}
		}
	}
	return ic.eval.Eval(expression, env)
}
