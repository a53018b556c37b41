package selector

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyducky/internal/logging"
)

// chooseFunc is the global a selector script must define. Lua already has a
// builtin named select, so the hook uses a different name.
const chooseFunc = "choose"

// DefaultTimeout bounds a single run of the selector script.
const DefaultTimeout = 250 * time.Millisecond

// Lua selects payloads by calling a user-supplied Lua function:
//
//	function choose(s1, s2, s3, s4)
//	  if s1 and s2 then return "combo.dd" end
//	  return nil -- fall back to switch priority
//	end
//
// Arguments are the asserted states of the four switches. A string result
// names the payload. nil, a non-string result or a Lua error falls back to
// the Fixed selector.
//
// The Lua state only has the base, table, string and math libraries, and
// every call into it is cut off after the timeout.
type Lua struct {
	mu       sync.Mutex
	L        *lua.LState
	fallback Fixed
	log      *logging.Logger
	timeout  time.Duration
}

// LuaOption configures a Lua selector.
type LuaOption func(*Lua)

// WithTimeout sets how long the script may run per call.
func WithTimeout(d time.Duration) LuaOption {
	return func(s *Lua) {
		s.timeout = d
	}
}

// NewLua compiles source and checks that it defines choose.
func NewLua(source string, fallback Fixed, log *logging.Logger, opts ...LuaOption) (*Lua, error) {
	if log == nil {
		log = logging.Nop()
	}
	s := &Lua{fallback: fallback, log: log, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	s.L = L

	cancel := s.bound()
	err := L.DoString(source)
	cancel()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("selector script: %w", err)
	}
	if fn := L.GetGlobal(chooseFunc); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("selector script does not define %s()", chooseFunc)
	}

	return s, nil
}

// bound attaches a timeout context to the Lua state. The returned func
// detaches it.
func (s *Lua) bound() func() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.L.SetContext(ctx)
	return func() {
		s.L.RemoveContext()
		cancel()
	}
}

// openSafeLibraries opens only side-effect free Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// base pulls in loaders that can read files
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Select implements Selector.
func (s *Lua) Select(asserted [Inputs]bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := make([]lua.LValue, Inputs)
	for i, on := range asserted {
		args[i] = lua.LBool(on)
	}

	cancel := s.bound()
	err := s.L.CallByParam(lua.P{
		Fn:      s.L.GetGlobal(chooseFunc),
		NRet:    1,
		Protect: true,
	}, args...)
	cancel()
	if err != nil {
		s.L.SetTop(0)
		s.log.Warn("selector script failed: %v", err)
		return s.fallback.Select(asserted)
	}

	ret := s.L.Get(-1)
	s.L.Pop(1)

	name, ok := ret.(lua.LString)
	if !ok || name == "" {
		if ret != lua.LNil {
			s.log.Warn("selector script returned %s, expected a payload name", ret.Type())
		}
		return s.fallback.Select(asserted)
	}
	return string(name)
}

// Close releases the Lua state.
func (s *Lua) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}
