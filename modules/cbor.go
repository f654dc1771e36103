package modules

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	lua "github.com/yuin/gopher-lua"
)

// Canonical mode keeps the encoding of a given table stable across runs.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("modules: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

const maxCBORDepth = 64

// OpenCBOR loads the cbor module.
func OpenCBOR(L *lua.LState) int {
	L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"encode": cborEncode,
		"decode": cborDecode,
	}))
	return 1
}

func cborEncode(L *lua.LState) int {
	v, err := toGo(L.CheckAny(1), 0)
	if err != nil {
		return pushError(L, err)
	}
	data, err := cborEncMode.Marshal(v)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(data))
	return 1
}

func cborDecode(L *lua.LState) int {
	var v any
	if err := cbor.Unmarshal([]byte(L.CheckString(1)), &v); err != nil {
		return pushError(L, fmt.Errorf("cbor: decode: %w", err))
	}
	lv, err := toLua(L, v, 0)
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lv)
	return 1
}

// toGo converts a Lua value to a CBOR-encodable Go value. Tables that form a
// 1..n sequence become arrays, everything else becomes a map.
func toGo(v lua.LValue, depth int) (any, error) {
	if depth > maxCBORDepth {
		return nil, fmt.Errorf("cbor: nesting deeper than %d", maxCBORDepth)
	}
	switch lv := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(lv), nil
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return f, nil
	case lua.LString:
		return string(lv), nil
	case *lua.LTable:
		return tableToGo(lv, depth)
	default:
		return nil, fmt.Errorf("cbor: cannot encode %s", v.Type())
	}
}

func tableToGo(t *lua.LTable, depth int) (any, error) {
	n := t.Len()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			v, err := toGo(t.RawGetInt(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i-1] = v
		}
		return arr, nil
	}

	m := make(map[any]any, count)
	var ferr error
	t.ForEach(func(k, v lua.LValue) {
		if ferr != nil {
			return
		}
		gk, err := toGo(k, depth+1)
		if err != nil {
			ferr = err
			return
		}
		gv, err := toGo(v, depth+1)
		if err != nil {
			ferr = err
			return
		}
		m[gk] = gv
	})
	if ferr != nil {
		return nil, ferr
	}
	return m, nil
}

func toLua(L *lua.LState, v any, depth int) (lua.LValue, error) {
	if depth > maxCBORDepth {
		return nil, fmt.Errorf("cbor: nesting deeper than %d", maxCBORDepth)
	}
	switch gv := v.(type) {
	case nil:
		return lua.LNil, nil
	case bool:
		return lua.LBool(gv), nil
	case uint64:
		return lua.LNumber(gv), nil
	case int64:
		return lua.LNumber(gv), nil
	case float32:
		return lua.LNumber(gv), nil
	case float64:
		return lua.LNumber(gv), nil
	case string:
		return lua.LString(gv), nil
	case []byte:
		return lua.LString(gv), nil
	case []any:
		t := L.CreateTable(len(gv), 0)
		for _, e := range gv {
			lv, err := toLua(L, e, depth+1)
			if err != nil {
				return nil, err
			}
			t.Append(lv)
		}
		return t, nil
	case map[any]any:
		t := L.CreateTable(0, len(gv))
		for k, e := range gv {
			lk, err := toLua(L, k, depth+1)
			if err != nil {
				return nil, err
			}
			if lk == lua.LNil {
				continue
			}
			lv, err := toLua(L, e, depth+1)
			if err != nil {
				return nil, err
			}
			t.RawSet(lk, lv)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("cbor: unsupported value of type %T", v)
	}
}
