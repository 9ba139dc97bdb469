package scripting

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Lua entry points. choose_next_direction(codes, facing) receives codes as a
// 1-based array; waiting_time() is optional and answers in milliseconds.
const (
	luaChoose  = "choose_next_direction"
	luaWaiting = "waiting_time"
)

// compileLua parses a script once so every agent can run it in its own VM.
func compileLua(path string) (*lua.FunctionProto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	chunk, err := parse.Parse(bufio.NewReader(f), path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return proto, nil
}

// LuaDecider runs a compiled script in a private gopher-lua VM.
// LState is not goroutine safe, so calls are serialised. Each call is
// bounded by limit.
type LuaDecider struct {
	mu    sync.Mutex
	name  string
	vm    *lua.LState
	limit time.Duration
}

func newLuaDecider(name string, proto *lua.FunctionProto, limit time.Duration) (*LuaDecider, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	if limit > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), limit)
		defer cancel()
		vm.SetContext(ctx)
	}
	vm.Push(vm.NewFunctionFromProto(proto))
	err := vm.PCall(0, lua.MultRet, nil)
	vm.RemoveContext()
	if err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if vm.GetGlobal(luaChoose) == lua.LNil {
		vm.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNoEntryPoint)
	}
	return &LuaDecider{name: name, vm: vm, limit: limit}, nil
}

// NewLuaDecider compiles and loads a single script file.
func NewLuaDecider(path string) (*LuaDecider, error) {
	proto, err := compileLua(path)
	if err != nil {
		return nil, err
	}
	return newLuaDecider(path, proto, DefaultCallLimit)
}

// call runs fn with args under the call limit and returns its single result.
func (d *LuaDecider) call(fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	ctx := context.Background()
	if d.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.limit)
		defer cancel()
		d.vm.SetContext(ctx)
		defer d.vm.RemoveContext()
	}
	if err := d.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		if ctx.Err() != nil {
			return lua.LNil, ErrTimeout
		}
		return lua.LNil, err
	}
	result := d.vm.Get(-1)
	d.vm.Pop(1)
	return result, nil
}

func (d *LuaDecider) ChooseDirection(codes []string, facing string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn := d.vm.GetGlobal(luaChoose)
	if fn == lua.LNil {
		return 0, fmt.Errorf("%s: %w", d.name, ErrNoEntryPoint)
	}
	t := d.vm.NewTable()
	for i, c := range codes {
		t.RawSetInt(i+1, lua.LString(c))
	}
	result, err := d.call(fn, t, lua.LString(facing))
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", d.name, luaChoose, err)
	}
	n, ok := result.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s: %w (%s)", d.name, ErrBadResult, result.Type())
	}
	return int(n), nil
}

func (d *LuaDecider) WaitingTime() (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn := d.vm.GetGlobal(luaWaiting)
	if fn == lua.LNil {
		return 0, false
	}
	result, err := d.call(fn)
	if err != nil {
		return 0, false
	}
	ms, ok := result.(lua.LNumber)
	if !ok || ms <= 0 {
		return 0, false
	}
	return time.Duration(float64(ms) * float64(time.Millisecond)), true
}

// Close shuts down the Lua VM.
func (d *LuaDecider) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vm.Close()
	return nil
}
