package capture

import (
	"errors"
	"fmt"
	"maps"

	"github.com/rzbill/logship/internal/drain"
	logpkg "github.com/rzbill/logship/pkg/log"
)

// ErrInvalidOptions is wrapped by every Pipeline construction error.
var ErrInvalidOptions = errors.New("capture: invalid options")

// Event is a captured, JSON-serializable record.
type Event map[string]any

// Action is whatever the host dispatches; handlers decide what it means.
type Action any

// State is the host state at capture time.
type State = drain.State

// Handler maps an action to an event, or returns nil to pass.
type Handler func(action Action, state State) Event

// Parameter is a value merged into every event. Fn, when set, is evaluated
// against the current state; otherwise Value is used.
type Parameter struct {
	Value any
	Fn    func(State) any
}

// Static returns a constant Parameter.
func Static(v any) Parameter { return Parameter{Value: v} }

// FromState returns a Parameter computed from state.
func FromState(fn func(State) any) Parameter { return Parameter{Fn: fn} }

func (p Parameter) resolve(state State) any {
	if p.Fn != nil {
		return p.Fn(state)
	}
	return p.Value
}

// Options configures a Pipeline.
type Options struct {
	// Handlers are tried in order. At least one is required.
	Handlers []Handler
	// Inject is merged over every event, replacing keys the handler set.
	Inject map[string]Parameter
	// Validator rejects events when it returns false.
	Validator func(Event) bool
	// CEL, when non-empty, is compiled into a CELValidator and applied after
	// Validator.
	CEL string
	// Transform reshapes the event last.
	Transform func(Event) Event
	Logger    logpkg.Logger
}

// Pipeline builds events from actions.
type Pipeline struct {
	handlers  []Handler
	inject    map[string]Parameter
	validator func(Event) bool
	cel       *CELValidator
	transform func(Event) Event
	logger    logpkg.Logger
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if len(opts.Handlers) == 0 {
		return nil, fmt.Errorf("%w: at least one handler is required", ErrInvalidOptions)
	}
	for i, h := range opts.Handlers {
		if h == nil {
			return nil, fmt.Errorf("%w: handler %d is nil", ErrInvalidOptions, i)
		}
	}
	p := &Pipeline{
		handlers:  append([]Handler(nil), opts.Handlers...),
		inject:    maps.Clone(opts.Inject),
		validator: opts.Validator,
		transform: opts.Transform,
		logger:    opts.Logger,
	}
	if opts.CEL != "" {
		v, err := NewCELValidator(opts.CEL)
		if err != nil {
			return nil, err
		}
		p.cel = v
	}
	if p.logger == nil {
		p.logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel))
	}
	p.logger = p.logger.WithComponent("capture")
	return p, nil
}

// Build runs action through the pipeline. ok is false when no handler claims
// the action, validation fails, or the final event is empty.
func (p *Pipeline) Build(action Action, state State) (Event, bool) {
	var ev Event
	for _, h := range p.handlers {
		if ev = h(action, state); ev != nil {
			break
		}
	}
	if ev == nil {
		return nil, false
	}

	if len(p.inject) > 0 {
		merged := make(Event, len(ev)+len(p.inject))
		maps.Copy(merged, ev)
		for k, param := range p.inject {
			merged[k] = param.resolve(state)
		}
		ev = merged
	}

	if p.validator != nil && !p.validator(ev) {
		p.logger.Error("event failed validation and will not be sent", logpkg.F("event", ev))
		return nil, false
	}
	if p.cel != nil && !p.cel.Valid(ev, state) {
		p.logger.Error("event failed validation and will not be sent",
			logpkg.F("event", ev), logpkg.Str("expr", p.cel.String()))
		return nil, false
	}

	if p.transform != nil {
		ev = p.transform(ev)
	}
	if len(ev) == 0 {
		return nil, false
	}
	return ev, true
}
