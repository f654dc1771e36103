// Package chunk recovers script source from the obfuscated chunks carried by a
// launcher, and produces those chunks at packaging time.
//
// An encoded chunk is the obfuscated body followed by one selector byte naming
// the encoding:
//
//	[body ...] ['-']   running-sum (forward difference) encoding
//	[body ...] ['#']   RC4 keystream encoding
//
// Decoding happens in place. The decoded source occupies the first len-1 bytes
// of the original buffer and the selector byte is cleared.
package chunk

import (
	"crypto/rc4"
	"errors"
	"fmt"
)

// Selector bytes
const (
	SelectorRunningSum byte = '-'
	SelectorKeystream  byte = '#'
)

var (
	ErrEmptyChunk          = errors.New("empty chunk")
	ErrUnsupportedEncoding = errors.New("unsupported chunk encoding")
)

// keystreamKey is fixed at build time. Release builds override it with
//
//	-ldflags "-X github.com/chazu/luastow/chunk.keystreamKey=..."
var keystreamKey = "luastow/keystream/v1"

// Key returns the build-embedded keystream key.
func Key() []byte {
	return []byte(keystreamKey)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Encoding identifies one of the chunk decode algorithms.
type Encoding uint8

const (
	Unknown Encoding = iota
	RunningSum
	Keystream
)

func (e Encoding) String() string {
	switch e {
	case RunningSum:
		return "running-sum"
	case Keystream:
		return "keystream"
	default:
		return "unknown"
	}
}

// Selector returns the trailing byte that tags a chunk with this encoding.
func (e Encoding) Selector() (byte, bool) {
	switch e {
	case RunningSum:
		return SelectorRunningSum, true
	case Keystream:
		return SelectorKeystream, true
	default:
		return 0, false
	}
}

// ParseEncoding maps a manifest name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "running-sum", "sum", "-":
		return RunningSum, nil
	case "keystream", "rc4", "#":
		return Keystream, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

// Classify inspects the selector byte of an encoded chunk.
func Classify(buf []byte) Encoding {
	if len(buf) == 0 {
		return Unknown
	}
	switch buf[len(buf)-1] {
	case SelectorRunningSum:
		return RunningSum
	case SelectorKeystream:
		return Keystream
	default:
		return Unknown
	}
}

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

// Decode decodes buf in place and returns the source, which shares buf's
// backing array and is one byte shorter. Chunks with an unrecognised selector
// are rejected untouched.
func Decode(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyChunk
	}
	n := len(buf) - 1
	if err := DecodeTo(buf[:n], buf); err != nil {
		return nil, err
	}
	buf[n] = 0
	return buf[:n], nil
}

// DecodeTo decodes the encoded chunk src into dst, which must hold at least
// len(src)-1 bytes. dst may alias src.
func DecodeTo(dst, src []byte) error {
	if len(src) == 0 {
		return ErrEmptyChunk
	}
	n := len(src) - 1
	if len(dst) < n {
		return fmt.Errorf("chunk: destination holds %d bytes, need %d", len(dst), n)
	}

	switch Classify(src) {
	case RunningSum:
		runningSum(dst[:n], src[:n])
	case Keystream:
		if err := keystream(dst[:n], src[:n]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: selector 0x%02x", ErrUnsupportedEncoding, src[n])
	}
	return nil
}

// runningSum undoes forward-difference encoding. Each output byte depends on
// the previous output byte, so the loop must run in increasing index order for
// dst == src to be safe.
func runningSum(dst, src []byte) {
	if len(src) == 0 {
		return
	}
	dst[0] = src[0]
	for i := 1; i < len(src); i++ {
		dst[i] = dst[i-1] + src[i]
	}
}

// keystream XORs src with the RC4 keystream derived from the build key. It is
// its own inverse.
func keystream(dst, src []byte) error {
	c, err := rc4.NewCipher(Key())
	if err != nil {
		return fmt.Errorf("chunk: keystream key: %w", err)
	}
	c.XORKeyStream(dst, src)
	return nil
}

// ---------------------------------------------------------------------------
// Encoding (packaging side)
// ---------------------------------------------------------------------------

// Encode obfuscates src with the given encoding and appends the selector byte.
// src is not modified.
func Encode(src []byte, enc Encoding) ([]byte, error) {
	sel, ok := enc.Selector()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}

	out := make([]byte, len(src)+1)
	switch enc {
	case RunningSum:
		forwardDifference(out[:len(src)], src)
	case Keystream:
		if err := keystream(out[:len(src)], src); err != nil {
			return nil, err
		}
	}
	out[len(src)] = sel
	return out, nil
}

func forwardDifference(dst, src []byte) {
	var prev byte
	for i, b := range src {
		dst[i] = b - prev
		prev = b
	}
}
