// Package bundle carries the encoded runtime prelude compiled into every
// launcher.
package bundle

import _ "embed"

//go:generate go run ../../cmd/stowpack encode -encoding running-sum -o runtime.bin runtime.lua

//go:embed runtime.bin
var runtimeChunk []byte

// ChunkName is the name the runtime is compiled under.
const ChunkName = "=runtime"

// Runtime returns a private copy of the encoded runtime chunk. The caller
// decodes it in place and wipes it afterwards, so the embedded bytes are never
// handed out directly.
func Runtime() []byte {
	out := make([]byte, len(runtimeChunk))
	copy(out, runtimeChunk)
	return out
}
