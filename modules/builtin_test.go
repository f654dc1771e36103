package modules

import (
	"path/filepath"
	"runtime"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

// newModuleState returns an interpreter with the default modules installed.
func newModuleState(t *testing.T) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	if err := Default().Install(L); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return L
}

func runLua(t *testing.T, L *lua.LState, src string) {
	t.Helper()
	if err := L.DoString(src); err != nil {
		t.Fatalf("script failed: %v", err)
	}
}

func TestFSModule(t *testing.T) {
	L := newModuleState(t)
	dir := t.TempDir()
	L.SetGlobal("dir", lua.LString(dir))
	L.SetGlobal("sep", lua.LString(string(filepath.Separator)))

	runLua(t, L, `
		local p = dir .. sep .. "sub"
		assert(fs.mkdir(p))
		assert(fs.write(p .. sep .. "a.txt", "hello"))
		assert(fs.exists(p .. sep .. "a.txt"))
		assert(fs.read(p .. sep .. "a.txt") == "hello")
		local st = fs.stat(p .. sep .. "a.txt")
		assert(st.size == 5 and not st.isdir)
		local names = fs.list(p)
		assert(#names == 1 and names[1] == "a.txt")
		assert(fs.remove(p))
		assert(not fs.exists(p))
		local v, err = fs.read(p .. sep .. "missing")
		assert(v == nil and type(err) == "string")
	`)
}

func TestCryptoModule(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		assert(crypto.sha256("abc") == "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
		assert(#crypto.blake2b("abc") == 64)
		assert(crypto.xxhash("") == "ef46db3751d8e999")
		assert(crypto.hexencode("\1\255") == "01ff")
		assert(crypto.hexdecode("01ff") == "\1\255")
		assert(#crypto.random(16) == 16)
		local v, err = crypto.hexdecode("zz")
		assert(v == nil and err)
	`)
}

func TestCBORModuleRoundTrip(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		local v = {name = "stow", n = 3, ratio = 0.5, ok = true, list = {1, 2, 3}, nested = {a = {"x"}}}
		local data = assert(cbor.encode(v))
		local back = assert(cbor.decode(data))
		assert(back.name == "stow")
		assert(back.n == 3)
		assert(back.ratio == 0.5)
		assert(back.ok == true)
		assert(#back.list == 3 and back.list[3] == 3)
		assert(back.nested.a[1] == "x")
		assert(cbor.encode(v) == data)
		local bad, err = cbor.encode(print)
		assert(bad == nil and err)
		local bad2, err2 = cbor.decode("\255\255")
		assert(bad2 == nil and err2)
	`)
}

func TestSQLiteModule(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		local db = assert(sqlite.open(":memory:"))
		db:exec("create table kv (k text primary key, v integer)")
		assert(db:exec("insert into kv (k, v) values (?, ?)", "a", 1) == 1)
		assert(db:exec("insert into kv (k, v) values (?, ?)", "b", 2) == 1)
		local rows = assert(db:query("select k, v from kv where v > ? order by k", 0))
		assert(#rows == 2)
		assert(rows[1].k == "a" and rows[1].v == 1)
		assert(rows[2].k == "b" and rows[2].v == 2)
		local r, err = db:exec("not sql")
		assert(r == nil and err)
		assert(db:close())
	`)
}

func TestSysModule(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		assert(sys.os == "linux" or sys.os == "macos" or sys.os == "windows" or #sys.os > 0)
		assert(type(sys.arch) == "string" and sys.arch ~= "")
		assert(type(sys.abi) == "string" and sys.abi ~= "")
		assert(sys.cpus >= 1)
		assert(sys.pid() > 0)
		assert(sys.getenv("LUASTOW_SURELY_UNSET_VAR") == nil)
	`)
	if got, want := L.GetField(L.GetGlobal("sys"), "os"), lua.LString(osName(runtime.GOOS)); got != want {
		t.Errorf("sys.os = %v, want %v", got, want)
	}
}

func TestSysVocabulary(t *testing.T) {
	osTests := map[string]string{
		"linux":   "linux",
		"darwin":  "macos",
		"windows": "windows",
	}
	for in, want := range osTests {
		if got := osName(in); got != want {
			t.Errorf("osName(%q) = %q, want %q", in, got, want)
		}
	}

	archTests := map[string]string{
		"amd64": "x86_64",
		"386":   "x86",
		"arm64": "aarch64",
	}
	for in, want := range archTests {
		if got := archName(in); got != want {
			t.Errorf("archName(%q) = %q, want %q", in, got, want)
		}
	}

	if got := abiName("linux"); got != "gnu" {
		t.Errorf("abiName(linux) = %q, want gnu", got)
	}
	saved := abi
	abi = "musl"
	defer func() { abi = saved }()
	if got := abiName("linux"); got != "musl" {
		t.Errorf("abiName with link-time abi = %q, want musl", got)
	}
}

func TestPSModule(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		local t0 = ps.time()
		local c0 = ps.clock()
		ps.sleep(0.01)
		assert(ps.clock() >= c0 + 0.005)
		assert(ps.time() >= t0)
		assert(t0 > 1e9)
		ps.sleep(0)
		ps.sleep(-1)
	`)
}

func TestReadlineHistory(t *testing.T) {
	L := newModuleState(t)
	runLua(t, L, `
		readline.addhistory("first")
		readline.addhistory("")
		readline.addhistory("second")
		local h = readline.history()
		assert(#h == 2 and h[1] == "first" and h[2] == "second")
	`)
}
