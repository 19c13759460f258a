package auditsvc

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// celFilter wraps a compiled CEL program used to narrow audit queries. When
// disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("user", cel.StringType),
		cel.Variable("action", cel.StringType),
		cel.Variable("resource", cel.StringType),
		cel.Variable("risk", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		// Expose the details document for field filtering
		cel.Variable("details", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval runs the program against one entry. Evaluation errors count as a
// non-match rather than failing the whole query.
func (f celFilter) Eval(e Entry) bool {
	if !f.enabled {
		return true
	}
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	out, _, err := f.prog.Eval(map[string]interface{}{
		"user":     e.UserID,
		"action":   e.Action,
		"resource": e.Resource,
		"risk":     string(e.Risk),
		"ts_ms":    e.TimestampMs,
		"details":  details,
		"now_ms":   time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
