// Package trailer reads and writes the fixed-size record appended to the end of
// a launcher executable. The record describes the application payload that
// precedes it.
package trailer

import (
	"errors"
	"fmt"
	"io"
)

// Layout constants
const (
	payloadSizeFieldSize = 4
	magicFieldSize       = 4

	// Size is the on-disk size of the trailer in bytes.
	Size = payloadSizeFieldSize + magicFieldSize
)

// Magic identifies a launcher that carries an application payload. On disk it
// reads as the bytes "stow".
const Magic uint32 = 0x776F7473

// ---------------------------------------------------------------------------
// Trailer Error Types
// ---------------------------------------------------------------------------

var (
	ErrTrailerRead   = errors.New("cannot read trailer")
	ErrNoApplication = errors.New("no application embedded")
	ErrPayloadBounds = errors.New("payload size exceeds file size")
)

// ---------------------------------------------------------------------------
// Trailer
// ---------------------------------------------------------------------------

// Trailer is the parsed 8-byte record at the end of the executable.
type Trailer struct {
	PayloadSize uint32
	Magic       uint32
}

// Valid reports whether the trailer carries the expected magic.
func (t Trailer) Valid() bool {
	return t.Magic == Magic
}

// Check returns ErrNoApplication when the magic does not match.
func (t Trailer) Check() error {
	if !t.Valid() {
		return fmt.Errorf("%w: magic 0x%08x", ErrNoApplication, t.Magic)
	}
	return nil
}

// Read seeks to the last Size bytes of r and decodes the trailer found there.
// The magic is not validated; a mismatch is a distinct outcome from an I/O
// failure and is left to the caller.
func Read(r io.ReadSeeker) (Trailer, error) {
	if _, err := r.Seek(-Size, io.SeekEnd); err != nil {
		return Trailer{}, fmt.Errorf("%w: seek: %v", ErrTrailerRead, err)
	}

	var buf [Size]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Trailer{}, fmt.Errorf("%w: %v", ErrTrailerRead, err)
	}

	return Decode(buf[:])
}

// Decode parses a trailer from exactly Size bytes.
func Decode(b []byte) (Trailer, error) {
	if len(b) != Size {
		return Trailer{}, fmt.Errorf("%w: got %d bytes, want %d", ErrTrailerRead, len(b), Size)
	}
	return Trailer{
		PayloadSize: readUint32(b[0:payloadSizeFieldSize]),
		Magic:       readUint32(b[payloadSizeFieldSize:]),
	}, nil
}

// Encode returns the on-disk form of t.
func (t Trailer) Encode() [Size]byte {
	var buf [Size]byte
	writeUint32(buf[0:payloadSizeFieldSize], t.PayloadSize)
	writeUint32(buf[payloadSizeFieldSize:], t.Magic)
	return buf
}

// Append writes a trailer with the build magic describing a payload of the
// given size.
func Append(w io.Writer, payloadSize uint32) error {
	buf := Trailer{PayloadSize: payloadSize, Magic: Magic}.Encode()
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing trailer: %w", err)
	}
	return nil
}

// PayloadOffset returns the file offset of the payload described by t in a
// file of the given size.
func PayloadOffset(fileSize int64, t Trailer) (int64, error) {
	off := fileSize - Size - int64(t.PayloadSize)
	if off < 0 {
		return 0, fmt.Errorf("%w: payload %d bytes, file %d bytes", ErrPayloadBounds, t.PayloadSize, fileSize)
	}
	return off, nil
}

// ---------------------------------------------------------------------------
// Byte order
// ---------------------------------------------------------------------------

// readUint32 assembles a little-endian value byte by byte so the result does
// not depend on the host byte order.
func readUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func writeUint32(b []byte, v uint32) {
	_ = b[3]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
