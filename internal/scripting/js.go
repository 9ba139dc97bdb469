package scripting

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// JavaScript entry points, mirroring the Lua ones. codes is 0-based here.
const (
	jsChoose  = "chooseNextDirection"
	jsWaiting = "waitingTime"
)

func compileJS(path string) (*goja.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := goja.Compile(path, string(src), false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return prog, nil
}

// JSDecider runs a compiled script in a private goja runtime. A call running
// past limit is interrupted.
type JSDecider struct {
	mu     sync.Mutex
	name   string
	vm     *goja.Runtime
	choose goja.Callable
	wait   goja.Callable
	limit  time.Duration
}

func newJSDecider(name string, prog *goja.Program, limit time.Duration) (*JSDecider, error) {
	vm := goja.New()
	if _, err := interruptAfter(vm, limit, func() (goja.Value, error) { return vm.RunProgram(prog) }); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	choose, ok := goja.AssertFunction(vm.Get(jsChoose))
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoEntryPoint)
	}
	wait, _ := goja.AssertFunction(vm.Get(jsWaiting))
	return &JSDecider{name: name, vm: vm, choose: choose, wait: wait, limit: limit}, nil
}

// interruptAfter runs fn on vm and interrupts it once limit has passed.
// A zero limit runs fn unbounded.
func interruptAfter(vm *goja.Runtime, limit time.Duration, fn func() (goja.Value, error)) (goja.Value, error) {
	if limit <= 0 {
		return fn()
	}
	fired := make(chan struct{})
	t := time.AfterFunc(limit, func() {
		vm.Interrupt(ErrTimeout)
		close(fired)
	})
	v, err := fn()
	if !t.Stop() {
		<-fired
		vm.ClearInterrupt()
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return nil, ErrTimeout
	}
	return v, err
}

func (d *JSDecider) call(fn goja.Callable, args ...goja.Value) (goja.Value, error) {
	return interruptAfter(d.vm, d.limit, func() (goja.Value, error) {
		return fn(goja.Undefined(), args...)
	})
}

func (d *JSDecider) ChooseDirection(codes []string, facing string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.call(d.choose, d.vm.ToValue(codes), d.vm.ToValue(facing))
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", d.name, jsChoose, err)
	}
	switch n := v.Export().(type) {
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%s: %w (%s)", d.name, ErrBadResult, v.String())
}

func (d *JSDecider) WaitingTime() (time.Duration, bool) {
	if d.wait == nil {
		return 0, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.call(d.wait)
	if err != nil {
		return 0, false
	}
	ms := v.ToFloat()
	if ms <= 0 {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}
