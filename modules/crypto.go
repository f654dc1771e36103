package modules

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/crypto/blake2b"
)

// OpenCrypto loads the crypto module. Digests are returned as lowercase hex.
func OpenCrypto(L *lua.LState) int {
	L.Push(L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"sha256":    cryptoSHA256,
		"blake2b":   cryptoBlake2b,
		"xxhash":    cryptoXXHash,
		"hexencode": cryptoHexEncode,
		"hexdecode": cryptoHexDecode,
		"random":    cryptoRandom,
	}))
	return 1
}

func cryptoSHA256(L *lua.LState) int {
	sum := sha256.Sum256([]byte(L.CheckString(1)))
	L.Push(lua.LString(hex.EncodeToString(sum[:])))
	return 1
}

func cryptoBlake2b(L *lua.LState) int {
	sum := blake2b.Sum256([]byte(L.CheckString(1)))
	L.Push(lua.LString(hex.EncodeToString(sum[:])))
	return 1
}

// cryptoXXHash returns the 64-bit digest as 16 hex digits; a Lua number
// cannot hold it exactly.
func cryptoXXHash(L *lua.LState) int {
	sum := xxhash.Sum64String(L.CheckString(1))
	L.Push(lua.LString(fmt.Sprintf("%016x", sum)))
	return 1
}

func cryptoHexEncode(L *lua.LState) int {
	L.Push(lua.LString(hex.EncodeToString([]byte(L.CheckString(1)))))
	return 1
}

func cryptoHexDecode(L *lua.LState) int {
	b, err := hex.DecodeString(L.CheckString(1))
	if err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(b))
	return 1
}

func cryptoRandom(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 {
		L.ArgError(1, "negative length")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return pushError(L, err)
	}
	L.Push(lua.LString(b))
	return 1
}
