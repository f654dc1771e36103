package trailer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTrailerRoundTrip(t *testing.T) {
	cases := []Trailer{
		{PayloadSize: 0, Magic: Magic},
		{PayloadSize: 1, Magic: Magic},
		{PayloadSize: 0x01020304, Magic: 0xA1B2C3D4},
		{PayloadSize: 0xFFFFFFFF, Magic: 0},
		{PayloadSize: 4096, Magic: 0xDEADBEEF},
	}

	for _, want := range cases {
		var buf bytes.Buffer
		buf.WriteString("launcher image bytes")
		enc := want.Encode()
		buf.Write(enc[:])

		got, err := Read(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("Read(%+v) failed: %v", want, err)
		}
		if got != want {
			t.Errorf("Read = %+v, want %+v", got, want)
		}
	}
}

func TestTrailerDiskLayoutIsLittleEndian(t *testing.T) {
	enc := Trailer{PayloadSize: 0x11223344, Magic: Magic}.Encode()

	want := []byte{0x44, 0x33, 0x22, 0x11, 's', 't', 'o', 'w'}
	if !bytes.Equal(enc[:], want) {
		t.Errorf("Encode = % x, want % x", enc[:], want)
	}
	if got := binary.LittleEndian.Uint32(enc[0:4]); got != 0x11223344 {
		t.Errorf("payload size field = 0x%x, want 0x11223344", got)
	}
}

func TestDecodeMatchesLittleEndianOnAnyHost(t *testing.T) {
	raw := []byte{0xEF, 0xBE, 0xAD, 0xDE, 0x78, 0x56, 0x34, 0x12}

	tr, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if tr.PayloadSize != 0xDEADBEEF {
		t.Errorf("PayloadSize = 0x%x, want 0xdeadbeef", tr.PayloadSize)
	}
	if tr.Magic != 0x12345678 {
		t.Errorf("Magic = 0x%x, want 0x12345678", tr.Magic)
	}
	if tr.PayloadSize != binary.LittleEndian.Uint32(raw[0:4]) {
		t.Error("PayloadSize does not match little-endian interpretation")
	}
}

func TestReadShortFile(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		_, err := Read(bytes.NewReader(make([]byte, n)))
		if !errors.Is(err, ErrTrailerRead) {
			t.Errorf("Read(%d bytes) error = %v, want ErrTrailerRead", n, err)
		}
	}
}

func TestReadExactlyTrailer(t *testing.T) {
	enc := Trailer{PayloadSize: 0, Magic: Magic}.Encode()
	got, err := Read(bytes.NewReader(enc[:]))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !got.Valid() {
		t.Errorf("Valid() = false for %+v", got)
	}
}

func TestReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("#!stub\x00payload-")
	if err := Append(f, 8); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	tr, err := Read(f)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if tr.PayloadSize != 8 || !tr.Valid() {
		t.Errorf("Read = %+v, want size 8 with build magic", tr)
	}
}

func TestCheckMagic(t *testing.T) {
	if err := (Trailer{Magic: Magic}).Check(); err != nil {
		t.Errorf("Check with build magic = %v, want nil", err)
	}
	err := (Trailer{Magic: 0x7f454c46}).Check()
	if !errors.Is(err, ErrNoApplication) {
		t.Errorf("Check with foreign magic = %v, want ErrNoApplication", err)
	}
	if errors.Is(err, ErrTrailerRead) {
		t.Error("magic mismatch must not be reported as a read error")
	}
}

func TestPayloadOffset(t *testing.T) {
	off, err := PayloadOffset(100, Trailer{PayloadSize: 20, Magic: Magic})
	if err != nil {
		t.Fatalf("PayloadOffset failed: %v", err)
	}
	if off != 72 {
		t.Errorf("PayloadOffset = %d, want 72", off)
	}

	if _, err := PayloadOffset(100, Trailer{PayloadSize: 93}); !errors.Is(err, ErrPayloadBounds) {
		t.Errorf("oversized payload error = %v, want ErrPayloadBounds", err)
	}
	if off, err := PayloadOffset(100, Trailer{PayloadSize: 92}); err != nil || off != 0 {
		t.Errorf("PayloadOffset filling the file = (%d, %v), want (0, nil)", off, err)
	}
}
