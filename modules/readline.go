package modules

import (
	"errors"
	"io"

	"github.com/peterh/liner"
	lua "github.com/yuin/gopher-lua"
)

// lineEditor keeps the history shared by successive readline calls. The
// terminal is only put in raw mode for the duration of one call.
type lineEditor struct {
	history []string
}

// OpenReadline loads the readline module.
func OpenReadline(L *lua.LState) int {
	ed := &lineEditor{}
	L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"readline":   ed.readline,
		"addhistory": ed.addHistory,
		"history":    ed.historyTable,
	}))
	return 1
}

func (ed *lineEditor) readline(L *lua.LState) int {
	prompt := L.OptString(1, "> ")

	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	for _, h := range ed.history {
		state.AppendHistory(h)
	}

	line, err := state.Prompt(prompt)
	if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
		L.Push(lua.LNil)
		return 1
	}
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(line))
	return 1
}

func (ed *lineEditor) addHistory(L *lua.LState) int {
	line := L.CheckString(1)
	if line != "" {
		ed.history = append(ed.history, line)
	}
	return 0
}

func (ed *lineEditor) historyTable(L *lua.LState) int {
	t := L.CreateTable(len(ed.history), 0)
	for _, h := range ed.history {
		t.Append(lua.LString(h))
	}
	L.Push(t)
	return 1
}
