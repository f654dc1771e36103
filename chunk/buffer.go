package chunk

// Buffer owns the bytes of one chunk for a single compile/execute cycle.
// Wipe zeroes the memory and drops it; callers defer it so the source does not
// outlive the cycle on any exit path.
type Buffer struct {
	data []byte
}

// NewBuffer takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the current contents. The slice is invalid after Wipe.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Decode decodes the held chunk in place and shrinks the buffer to the
// decoded source.
func (b *Buffer) Decode() error {
	src, err := Decode(b.data)
	if err != nil {
		return err
	}
	// src keeps the original capacity, so Wipe still covers the selector byte.
	b.data = src
	return nil
}

// Wiped reports whether the buffer has been released.
func (b *Buffer) Wiped() bool {
	return b == nil || b.data == nil
}

// Wipe zeroes the full capacity of the buffer and releases it. It is safe to
// call more than once.
func (b *Buffer) Wipe() {
	if b == nil || b.data == nil {
		return
	}
	full := b.data[:cap(b.data)]
	clear(full)
	b.data = nil
}
