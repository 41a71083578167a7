package capture

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// CELValidator accepts events for which a boolean CEL expression holds. The
// expression sees two variables: event (the candidate event) and state (the
// host state at capture time).
//
//	event.type == "click" && has(state.user)
type CELValidator struct {
	expr string
	prog cel.Program
}

// NewCELValidator compiles expr. An empty expression is rejected.
func NewCELValidator(expr string) (*CELValidator, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty validator expression", ErrInvalidOptions)
	}
	env, err := cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("state", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: validator must evaluate to bool, got %s", ErrInvalidOptions, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &CELValidator{expr: expr, prog: prog}, nil
}

// Valid reports whether the expression holds. Evaluation errors and non-bool
// results count as invalid.
func (v *CELValidator) Valid(event Event, state State) bool {
	st := map[string]any(state)
	if st == nil {
		st = map[string]any{}
	}
	out, _, err := v.prog.Eval(map[string]any{
		"event": map[string]any(event),
		"state": st,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// String returns the source expression.
func (v *CELValidator) String() string { return v.expr }
