// Package runner compiles decoded chunks and executes them under a protected
// call with a traceback-producing message handler.
package runner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	lua "github.com/yuin/gopher-lua"

	"github.com/chazu/luastow/chunk"
)

var log = commonlog.GetLogger("luastow.runner")

// launcherFrames is the number of trailing traceback lines that belong to the
// launcher's own frames around the protected call rather than to the chunk.
const launcherFrames = 2

// tracebackLevel skips debug.traceback itself and the message handler.
const tracebackLevel = 2

// ---------------------------------------------------------------------------
// Outcome
// ---------------------------------------------------------------------------

// Status is the result code of one protected execution. The values follow
// the interpreter's conventional error codes.
type Status int

const (
	StatusOK Status = 0

	// StatusRuntime covers every error raised while the chunk runs, Go panics
	// inside module functions included: with a message handler installed the
	// interpreter reports them all the same way.
	StatusRuntime Status = 2

	// StatusSyntax is reported by Run when compilation fails.
	StatusSyntax Status = 3

	// StatusError means the message handler itself panicked.
	StatusError Status = 5
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusRuntime:
		return "runtime error"
	case StatusSyntax:
		return "syntax error"
	case StatusError:
		return "error in error handling"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the status and optional failure text of one execution.
type Outcome struct {
	Status  Status
	Message string
}

// OK reports whether the chunk ran to completion.
func (o Outcome) OK() bool {
	return o.Status == StatusOK
}

// ExitCode converts the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	return int(o.Status)
}

// ---------------------------------------------------------------------------
// Executor
// ---------------------------------------------------------------------------

// Executor runs decoded chunks inside an interpreter owned by the caller.
type Executor struct {
	// Stderr receives the failure text of unsuccessful runs. Defaults to
	// os.Stderr.
	Stderr io.Writer
}

// New creates an Executor writing failures to stderr.
func New(stderr io.Writer) *Executor {
	return &Executor{Stderr: stderr}
}

// Run compiles src as a chunk called name and calls it under a protected
// call. The source is wiped as soon as compilation finishes, whatever the
// result.
func (e *Executor) Run(L *lua.LState, src *chunk.Buffer, name string) Outcome {
	fn, err := L.Load(bytes.NewReader(src.Bytes()), SourceName(name))
	src.Wipe()
	if err != nil {
		out := Outcome{Status: StatusSyntax, Message: errorText(err)}
		log.Debugf("compile %s failed: %s", name, out.Message)
		e.report(out)
		return out
	}

	top := L.GetTop()
	L.Push(fn)
	err = L.PCall(0, 0, L.NewFunction(messageHandler))
	L.SetTop(top)
	if err != nil {
		out := Outcome{Status: statusOf(err), Message: errorText(err)}
		log.Debugf("run %s failed (%s)", name, out.Status)
		e.report(out)
		return out
	}

	log.Debugf("run %s ok", name)
	return Outcome{Status: StatusOK}
}

func (e *Executor) report(out Outcome) {
	if out.OK() || out.Message == "" {
		return
	}
	w := e.Stderr
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, out.Message)
}

// messageHandler turns the error value into a traceback with the launcher's
// own trailing frames removed.
func messageHandler(L *lua.LState) int {
	msg := L.ToStringMeta(L.Get(1)).String()

	trace := msg
	if tb, ok := L.GetField(L.GetGlobal("debug"), "traceback").(*lua.LFunction); ok {
		err := L.CallByParam(lua.P{Fn: tb, NRet: 1, Protect: true}, lua.LString(msg), lua.LNumber(tracebackLevel))
		if err == nil {
			trace = lua.LVAsString(L.Get(-1))
			L.Pop(1)
		}
	}

	L.Push(lua.LString(TrimTraceback(trace, launcherFrames)))
	return 1
}

// TrimTraceback removes the last n lines of trace. A trace with fewer than n
// line breaks is returned unmodified.
func TrimTraceback(trace string, n int) string {
	if n <= 0 {
		return trace
	}
	end := len(trace)
	for i := 0; i < n; i++ {
		idx := strings.LastIndexByte(trace[:end], '\n')
		if idx < 0 {
			return trace
		}
		end = idx
	}
	return trace[:end]
}

// SourceName converts a chunk name to the source name shown in messages. A
// leading '=' or '@' is dropped, so "=runtime" reads as "runtime".
func SourceName(name string) string {
	if len(name) > 0 && (name[0] == '=' || name[0] == '@') {
		return name[1:]
	}
	return name
}

// statusOf maps a PCall error. Errors raised by the chunk come back as
// ApiErrorError once the handler has run; ApiErrorPanic only survives when
// the handler itself panicked.
func statusOf(err error) Status {
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Type == lua.ApiErrorPanic {
		return StatusError
	}
	return StatusRuntime
}

func errorText(err error) string {
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
