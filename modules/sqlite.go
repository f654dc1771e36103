package modules

import (
	"database/sql"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	_ "modernc.org/sqlite"
)

const sqliteDBType = "sqlite.db"

var sqliteMethods = map[string]lua.LGFunction{
	"exec":  sqliteExec,
	"query": sqliteQuery,
	"close": sqliteClose,
}

// OpenSQLite loads the sqlite module. sqlite.open returns a database handle
// with exec, query and close methods.
func OpenSQLite(L *lua.LState) int {
	mt := L.NewTypeMetatable(sqliteDBType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), sqliteMethods))
	L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"open": sqliteOpen,
	}))
	return 1
}

func sqliteOpen(L *lua.LState) int {
	path := L.OptString(1, ":memory:")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return pushError(L, err)
	}
	// A single connection keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return pushError(L, err)
	}

	ud := L.NewUserData()
	ud.Value = db
	L.SetMetatable(ud, L.GetTypeMetatable(sqliteDBType))
	L.Push(ud)
	return 1
}

func checkDB(L *lua.LState) *sql.DB {
	ud := L.CheckUserData(1)
	db, ok := ud.Value.(*sql.DB)
	if !ok || db == nil {
		L.ArgError(1, "open sqlite.db expected")
		return nil
	}
	return db
}

// queryArgs converts the Lua arguments after the statement into driver values.
func queryArgs(L *lua.LState, from int) ([]any, error) {
	var args []any
	for i := from; i <= L.GetTop(); i++ {
		v, err := toGo(L.Get(i), 0)
		if err != nil {
			return nil, err
		}
		switch v.(type) {
		case []any, map[any]any:
			return nil, fmt.Errorf("sqlite: argument %d: tables cannot be bound", i-from+1)
		}
		args = append(args, v)
	}
	return args, nil
}

func sqliteExec(L *lua.LState) int {
	db := checkDB(L)
	stmt := L.CheckString(2)
	args, err := queryArgs(L, 3)
	if err != nil {
		return pushError(L, err)
	}
	res, err := db.Exec(stmt, args...)
	if err != nil {
		return pushError(L, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

func sqliteQuery(L *lua.LState) int {
	db := checkDB(L)
	stmt := L.CheckString(2)
	args, err := queryArgs(L, 3)
	if err != nil {
		return pushError(L, err)
	}

	rows, err := db.Query(stmt, args...)
	if err != nil {
		return pushError(L, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return pushError(L, err)
	}

	result := L.NewTable()
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return pushError(L, err)
		}
		row := L.CreateTable(0, len(cols))
		for i, c := range cols {
			row.RawSetString(c, sqlValue(values[i]))
		}
		result.Append(row)
	}
	if err := rows.Err(); err != nil {
		return pushError(L, err)
	}

	L.Push(result)
	return 1
}

func sqliteClose(L *lua.LState) int {
	ud := L.CheckUserData(1)
	if db, ok := ud.Value.(*sql.DB); ok && db != nil {
		ud.Value = nil
		if err := db.Close(); err != nil {
			return pushError(L, err)
		}
	}
	L.Push(lua.LTrue)
	return 1
}

func sqlValue(v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case []byte:
		return lua.LString(x)
	case time.Time:
		return lua.LString(x.Format(time.RFC3339Nano))
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
