// Package launcher runs the bootstrap sequence of a self-extracting script
// executable: install modules, run the bundled runtime, then find, decode and
// run the application payload appended to the executable's own image.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"

	"github.com/chazu/luastow/chunk"
	"github.com/chazu/luastow/launcher/bundle"
	"github.com/chazu/luastow/modules"
	"github.com/chazu/luastow/runner"
	"github.com/chazu/luastow/selfimage"
	"github.com/chazu/luastow/trailer"
)

// Chunk names
const (
	RuntimeChunkName     = bundle.ChunkName
	ApplicationChunkName = "="
)

// ExitFatal is the exit status of an aborted bootstrap.
const ExitFatal = 1

var (
	ErrRuntime     = errors.New("bundled runtime failed")
	ErrPayloadRead = errors.New("cannot read application payload")
)

// Options configures a Launcher. Zero values select the production defaults.
type Options struct {
	// ArgOffset is the number of leading arguments that belong to the
	// launcher rather than the script. arg[0] is args[ArgOffset]; the
	// arguments before it are not visible to scripts.
	ArgOffset int

	// Locator finds the file carrying the payload.
	Locator selfimage.Locator

	// Modules are installed into the interpreter before the runtime runs.
	Modules *modules.Registry

	// Runtime returns the encoded runtime chunk. The launcher takes ownership
	// of the returned slice.
	Runtime func() []byte

	// Stderr receives diagnostics and script tracebacks.
	Stderr io.Writer

	// Program prefixes diagnostic lines. Defaults to the base name of args[0].
	Program string
}

// Launcher owns the interpreter and buffers for one bootstrap run.
type Launcher struct {
	opts  Options
	exec  *runner.Executor
	state State
	err   error

	L *lua.LState
}

// New creates a Launcher.
func New(opts Options) *Launcher {
	if opts.Locator == nil {
		opts.Locator = selfimage.Default()
	}
	if opts.Modules == nil {
		opts.Modules = modules.Default()
	}
	if opts.Runtime == nil {
		opts.Runtime = bundle.Runtime
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Launcher{
		opts: opts,
		exec: runner.New(opts.Stderr),
	}
}

// State returns the last state the sequence reached.
func (l *Launcher) State() State {
	return l.state
}

// Err returns the error that aborted the sequence, if any.
func (l *Launcher) Err() error {
	return l.err
}

// Run executes the bootstrap sequence and returns the process exit status.
func (l *Launcher) Run(args []string) int {
	l.L = lua.NewState()
	defer func() {
		l.L.Close()
		l.L = nil
	}()

	code, err := l.run(args)
	if err != nil {
		l.abort(args, err)
		return ExitFatal
	}
	l.enter(StateDone)
	return code
}

func (l *Launcher) run(args []string) (int, error) {
	l.enter(StateInit)
	l.L.SetGlobal("arg", argTable(l.L, args, l.opts.ArgOffset))

	if err := l.opts.Modules.Install(l.L); err != nil {
		return 0, err
	}
	l.enter(StateModulesRegistered)

	if err := l.loadRuntime(); err != nil {
		return 0, err
	}
	l.enter(StateRuntimeLoaded)

	path, err := l.opts.Locator.Locate()
	if err != nil {
		return 0, err
	}
	l.enter(StateSelfLocated)
	log.Debugf("self image: %s", path)

	payload, err := l.readPayload(path)
	defer payload.Wipe()
	if err != nil {
		return 0, err
	}

	if err := payload.Decode(); err != nil {
		return 0, err
	}
	l.enter(StatePayloadDecoded)

	out := l.exec.Run(l.L, payload, ApplicationChunkName)
	l.enter(StatePayloadExecuted)
	return out.ExitCode(), nil
}

func (l *Launcher) loadRuntime() error {
	buf := chunk.NewBuffer(l.opts.Runtime())
	defer buf.Wipe()

	if err := buf.Decode(); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntime, err)
	}
	if out := l.exec.Run(l.L, buf, RuntimeChunkName); !out.OK() {
		return fmt.Errorf("%w: %s", ErrRuntime, out.Status)
	}
	return nil
}

// readPayload reads the trailer of the file at path and the payload it
// describes. The returned buffer is never nil.
func (l *Launcher) readPayload(path string) (*chunk.Buffer, error) {
	payload := chunk.NewBuffer(nil)

	f, err := os.Open(path)
	if err != nil {
		return payload, fmt.Errorf("%w: %v", ErrPayloadRead, err)
	}
	defer f.Close()

	tr, err := trailer.Read(f)
	if err != nil {
		return payload, err
	}
	if err := tr.Check(); err != nil {
		return payload, err
	}
	l.enter(StateTrailerRead)
	log.Debugf("trailer: payload %d bytes", tr.PayloadSize)

	info, err := f.Stat()
	if err != nil {
		return payload, fmt.Errorf("%w: %v", ErrPayloadRead, err)
	}
	off, err := trailer.PayloadOffset(info.Size(), tr)
	if err != nil {
		return payload, err
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return payload, fmt.Errorf("%w: seek: %v", ErrPayloadRead, err)
	}

	payload = chunk.NewBuffer(make([]byte, tr.PayloadSize))
	if _, err := io.ReadFull(f, payload.Bytes()); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrPayloadRead, err)
	}
	return payload, nil
}

func (l *Launcher) enter(s State) {
	l.state = s
	log.Debugf("state: %s", s)
}

func (l *Launcher) abort(args []string, err error) {
	from := l.state
	l.state = StateAborted
	l.err = err
	log.Debugf("aborted after %s: %v", from, err)
	fmt.Fprintf(l.opts.Stderr, "%s: %v\n", l.program(args), err)
}

func (l *Launcher) program(args []string) string {
	if l.opts.Program != "" {
		return l.opts.Program
	}
	if len(args) > 0 && args[0] != "" {
		return filepath.Base(args[0])
	}
	return "luastow"
}

// argTable builds the global arg table: arg[i-offset] = args[i] for
// i >= offset, so the script name sits at index 0. Arguments before the
// offset belong to the launcher and are left out. Field n holds the number
// of positive-index entries.
func argTable(L *lua.LState, args []string, offset int) *lua.LTable {
	offset = max(0, min(offset, len(args)))
	positive := max(0, len(args)-offset-1)

	t := L.CreateTable(positive, 2)
	for i := offset; i < len(args); i++ {
		t.RawSetInt(i-offset, lua.LString(args[i]))
	}
	t.RawSetString("n", lua.LNumber(positive))
	return t
}
