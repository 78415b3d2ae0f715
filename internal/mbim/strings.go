package mbim

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// ErrBufferTooShort is returned when an information buffer does not hold the
// fields a parser expects.
var ErrBufferTooShort = errors.New("information buffer too short")

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func encodeUTF16(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return utf16le.NewEncoder().Bytes([]byte(s))
}

func decodeUTF16(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if len(b)%2 != 0 {
		return "", fmt.Errorf("odd UTF-16 string length %d", len(b))
	}
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func padded(n int) int {
	return (n + 3) &^ 3
}

// bufferBuilder writes an information buffer made of a fixed-size field
// area followed by a variable data area. (offset, size) references point
// from the fixed area into the data area, relative to the buffer start.
type bufferBuilder struct {
	fixedSize int
	fixed     []byte
	data      []byte
	err       error
}

func newBufferBuilder(fixedSize int) *bufferBuilder {
	return &bufferBuilder{
		fixedSize: fixedSize,
		fixed:     make([]byte, 0, fixedSize),
	}
}

func (b *bufferBuilder) putUint32(v uint32) {
	b.fixed = binary.LittleEndian.AppendUint32(b.fixed, v)
}

// putString appends an (offset, size) pair and the padded UTF-16LE data.
// Empty strings are encoded as offset 0, size 0.
func (b *bufferBuilder) putString(s string) {
	enc, err := encodeUTF16(s)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("encoding %q: %w", s, err)
	}
	if len(enc) == 0 {
		b.putUint32(0)
		b.putUint32(0)
		return
	}
	b.putUint32(uint32(b.fixedSize + len(b.data)))
	b.putUint32(uint32(len(enc)))
	b.data = append(b.data, enc...)
	b.data = append(b.data, make([]byte, padded(len(enc))-len(enc))...)
}

func (b *bufferBuilder) bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fixed) != b.fixedSize {
		return nil, fmt.Errorf("fixed area is %d bytes, declared %d", len(b.fixed), b.fixedSize)
	}
	out := make([]byte, 0, len(b.fixed)+len(b.data))
	out = append(out, b.fixed...)
	return append(out, b.data...), nil
}

// bufferReader reads fields from an information buffer. String offsets are
// resolved relative to base, which is the start of the enclosing struct.
type bufferReader struct {
	buf  []byte
	base int
}

func (r bufferReader) uint32At(off int) (uint32, error) {
	pos := r.base + off
	if off < 0 || pos+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: need 4 bytes at offset %d, have %d", ErrBufferTooShort, pos, len(r.buf))
	}
	return binary.LittleEndian.Uint32(r.buf[pos : pos+4]), nil
}

// stringAt reads the (offset, size) pair stored at off and decodes the
// string it references.
func (r bufferReader) stringAt(off int) (string, error) {
	offset, err := r.uint32At(off)
	if err != nil {
		return "", err
	}
	size, err := r.uint32At(off + 4)
	if err != nil {
		return "", err
	}
	if size == 0 {
		return "", nil
	}
	start := uint64(r.base) + uint64(offset)
	end := start + uint64(size)
	if end > uint64(len(r.buf)) {
		return "", fmt.Errorf("%w: string at %d+%d exceeds %d bytes", ErrBufferTooShort, start, size, len(r.buf))
	}
	return decodeUTF16(r.buf[start:end])
}

// at returns a reader whose string offsets are relative to pos.
func (r bufferReader) at(pos int) bufferReader {
	return bufferReader{buf: r.buf, base: pos}
}
