package scripting

import (
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprEnv is what a one-line expression script sees. Directions are 0 north,
// 1 east, 2 south and 3 west.
type ExprEnv struct {
	Codes      []string
	Facing     int
	Neighbours [4]string
}

// Has reports whether the neighbour in direction d shows code.
func (e ExprEnv) Has(d int, code string) bool {
	return d >= 0 && d < 4 && e.Neighbours[d] == code
}

// Open reports whether the neighbour in direction d can be walked into.
func (e ExprEnv) Open(d int) bool {
	return d >= 0 && d < 4 && e.Neighbours[d] != "W"
}

// Turn returns the direction after n clockwise quarter turns from facing.
func (e ExprEnv) Turn(n int) int {
	return ((e.Facing+n)%4 + 4) % 4
}

func compileExpr(path string) (*vm.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := expr.Compile(strings.TrimSpace(string(src)),
		expr.Env(ExprEnv{}),
		expr.AsInt(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return prog, nil
}

// ExprDecider evaluates a compiled expr-lang program. Programs are immutable,
// so one decider may serve many agents.
type ExprDecider struct {
	name    string
	program *vm.Program
}

// NewExprDecider compiles a single expression file.
func NewExprDecider(path string) (*ExprDecider, error) {
	prog, err := compileExpr(path)
	if err != nil {
		return nil, err
	}
	return &ExprDecider{name: path, program: prog}, nil
}

func (d *ExprDecider) ChooseDirection(codes []string, facing string) (int, error) {
	nb, ok := Neighbours(codes)
	if !ok {
		return 0, fmt.Errorf("%s: %w", d.name, ErrBadSample)
	}
	out, err := expr.Run(d.program, ExprEnv{Codes: codes, Facing: parseFacing(facing), Neighbours: nb})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", d.name, err)
	}
	n, ok := out.(int)
	if !ok {
		return 0, fmt.Errorf("%s: %w (%T)", d.name, ErrBadResult, out)
	}
	return n, nil
}
