// Package pack produces launcher executables: a copy of the launcher stub with
// an encoded script and a trailer appended to it.
package pack

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/luastow/chunk"
	"github.com/chazu/luastow/trailer"
)

var log = commonlog.GetLogger("luastow.pack")

var (
	ErrAlreadyPacked   = errors.New("stub already carries an application")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Options describes one packaging run.
type Options struct {
	// Stub is the path of the launcher executable to copy.
	Stub string

	// Script is the application source.
	Script []byte

	// Encoding obfuscates the script in the output.
	Encoding chunk.Encoding

	// Output is the path of the executable to create.
	Output string
}

// Build writes opts.Output as the stub followed by the encoded script and its
// trailer.
func Build(opts Options) error {
	payload, err := Payload(opts.Script, opts.Encoding)
	if err != nil {
		return err
	}

	stub, err := os.Open(opts.Stub)
	if err != nil {
		return fmt.Errorf("cannot open stub: %w", err)
	}
	defer stub.Close()

	if err := checkUnpacked(stub); err != nil {
		return fmt.Errorf("%s: %w", opts.Stub, err)
	}
	if _, err := stub.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("cannot rewind stub: %w", err)
	}

	out, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return fmt.Errorf("cannot create output: %w", err)
	}

	n, err := io.Copy(out, stub)
	if err != nil {
		out.Close()
		return fmt.Errorf("copying stub: %w", err)
	}
	if err := Append(out, payload); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	log.Infof("packed %s: stub %d bytes, payload %d bytes (%s)", opts.Output, n, len(payload), opts.Encoding)
	return nil
}

// Payload encodes a script into the chunk form stored in the executable.
func Payload(script []byte, enc chunk.Encoding) ([]byte, error) {
	if uint64(len(script))+1 > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(script))
	}
	return chunk.Encode(script, enc)
}

// Append writes an encoded payload followed by the trailer describing it.
func Append(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return trailer.Append(w, uint32(len(payload)))
}

// checkUnpacked fails when r already ends with a valid trailer. Files too
// short to hold a trailer count as unpacked.
func checkUnpacked(r io.ReadSeeker) error {
	tr, err := trailer.Read(r)
	if errors.Is(err, trailer.ErrTrailerRead) {
		return nil
	}
	if err != nil {
		return err
	}
	if tr.Valid() {
		return ErrAlreadyPacked
	}
	return nil
}

// Info describes the application carried by an executable.
type Info struct {
	Trailer  trailer.Trailer
	Offset   int64
	Encoding chunk.Encoding
}

// Inspect reads the trailer of the executable at path and classifies its
// payload without decoding it.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	tr, err := trailer.Read(f)
	if err != nil {
		return Info{}, err
	}
	if err := tr.Check(); err != nil {
		return Info{Trailer: tr}, err
	}

	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	off, err := trailer.PayloadOffset(st.Size(), tr)
	if err != nil {
		return Info{Trailer: tr}, err
	}

	info := Info{Trailer: tr, Offset: off, Encoding: chunk.Unknown}
	if tr.PayloadSize > 0 {
		var sel [1]byte
		if _, err := f.ReadAt(sel[:], off+int64(tr.PayloadSize)-1); err != nil {
			return info, fmt.Errorf("reading selector: %w", err)
		}
		info.Encoding = chunk.Classify(sel[:])
	}
	return info, nil
}
