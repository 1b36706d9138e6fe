package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
)

// Query evaluates an expr-lang expression against d.
//
// Every document key is visible as a variable holding its native value,
// alongside the builtins described in [BuiltinEnvKeys]. Document keys shadow
// builtins of the same name.
func (d *Document) Query(ctx context.Context, expression string) (any, error) {
	env := makeEnv()
	for key, v := range d.All() {
		env[key] = v.Native()
	}

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("expression", expression))
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrExprEvaluate.Wrap(err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("expression", expression))
	}

	return result, nil
}

// FormatResult renders a query result for display. Strings are printed
// verbatim and everything else as JSON.
func FormatResult(result any) string {
	switch v := result.(type) {
	case string:
		return v

	case fmt.Stringer:
		return v.String()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprint(result)
	}

	return string(data)
}
