package scripting

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/expr-lang/expr/vm"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Script directories below the engine root.
const (
	HerbivoreDir = "herbivore"
	PredatorDir  = "predator"
)

// script is one compiled decision script. Exactly one of the program fields
// is set.
type script struct {
	name string
	path string
	lua  *lua.FunctionProto
	js   *goja.Program
	expr *vm.Program
}

// instantiate returns a decider with its own VM, so agents never share state.
func (s *script) instantiate(limit time.Duration) (Decider, error) {
	switch {
	case s.lua != nil:
		return newLuaDecider(s.path, s.lua, limit)
	case s.js != nil:
		return newJSDecider(s.path, s.js, limit)
	case s.expr != nil:
		return &ExprDecider{name: s.path, program: s.expr}, nil
	}
	return nil, fmt.Errorf("%s: %w", s.path, ErrNoEntryPoint)
}

// Engine holds the compiled herbivore and predator scripts and hands out a
// fresh decider per agent.
type Engine struct {
	log        *zap.Logger
	limit      time.Duration
	herbivores map[string]*script
	predators  map[string]*script
}

// NewEngine compiles every script under dir/herbivore and dir/predator.
// Missing directories are skipped; agents then fall back to behaviour trees.
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{
		log:        log,
		limit:      DefaultCallLimit,
		herbivores: make(map[string]*script),
		predators:  make(map[string]*script),
	}
	if err := e.loadDir(filepath.Join(dir, HerbivoreDir), e.herbivores); err != nil {
		return nil, fmt.Errorf("load herbivore scripts: %w", err)
	}
	if err := e.loadDir(filepath.Join(dir, PredatorDir), e.predators); err != nil {
		return nil, fmt.Errorf("load predator scripts: %w", err)
	}
	return e, nil
}

// loadDir compiles all .lua, .js and .expr files in a directory.
func (e *Engine) loadDir(dir string, into map[string]*script) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := filepath.Ext(entry.Name())
		s := &script{name: strings.TrimSuffix(entry.Name(), ext), path: path}
		switch ext {
		case ".lua":
			s.lua, err = compileLua(path)
		case ".js":
			s.js, err = compileJS(path)
		case ".expr":
			s.expr, err = compileExpr(path)
		default:
			continue
		}
		if err != nil {
			return err
		}
		if prev, ok := into[s.name]; ok {
			return fmt.Errorf("script %q defined by both %s and %s", s.name, prev.path, path)
		}
		into[s.name] = s
		e.log.Debug("compiled decision script", zap.String("file", path))
	}
	return nil
}

// SetCallLimit bounds every later script call. Zero removes the bound.
func (e *Engine) SetCallLimit(d time.Duration) { e.limit = d }

func sortedNames(m map[string]*script) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HerbivoreScripts lists the loaded herbivore script names.
func (e *Engine) HerbivoreScripts() []string { return sortedNames(e.herbivores) }

// PredatorScripts lists the loaded predator script names.
func (e *Engine) PredatorScripts() []string { return sortedNames(e.predators) }

// Herbivore returns a decider running a randomly chosen herbivore script, or
// the built-in tree when none is loaded or the script fails to start.
func (e *Engine) Herbivore(rng *rand.Rand) Decider {
	names := e.HerbivoreScripts()
	if len(names) == 0 {
		return HerbivoreTree(rng)
	}
	s := e.herbivores[names[rng.Intn(len(names))]]
	d, err := s.instantiate(e.limit)
	if err != nil {
		e.log.Error("herbivore script failed to start, using behaviour tree",
			zap.String("script", s.path), zap.Error(err))
		return HerbivoreTree(rng)
	}
	return d
}

// Predator returns a decider running the named predator script, or the
// built-in tree when it is missing or fails to start.
func (e *Engine) Predator(name string, rng *rand.Rand) Decider {
	s, ok := e.predators[name]
	if !ok {
		e.log.Warn("predator script not found, using behaviour tree", zap.String("script", name))
		return PredatorTree(rng)
	}
	d, err := s.instantiate(e.limit)
	if err != nil {
		e.log.Error("predator script failed to start, using behaviour tree",
			zap.String("script", s.path), zap.Error(err))
		return PredatorTree(rng)
	}
	return d
}
