package mbim

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Fragmentation errors.
var (
	ErrNotReassembled        = errors.New("fragmented message not reassembled")
	ErrFragmentOutOfSequence = errors.New("fragment out of sequence")
	ErrMaxTransferTooSmall   = errors.New("max control transfer too small")
)

// Fragments encodes a message and splits it so that no piece exceeds
// maxControlTransfer bytes. Messages without a fragment header are returned
// whole.
//
// The first fragment keeps the complete fixed body, so its buffer length
// field holds the full buffer size. Later fragments carry only the header,
// the fragment header and the next slice of the buffer.
func Fragments(m *Message, maxControlTransfer int) ([][]byte, error) {
	whole := m.Encode()
	if !m.Type.fragmented() || len(whole) <= maxControlTransfer {
		return [][]byte{whole}, nil
	}

	fixed := commandFixedSize
	if m.Type == TypeIndicateStatus {
		fixed = indicateStatusFixedSize
	}
	if maxControlTransfer <= fixed {
		return nil, fmt.Errorf("%w: %d", ErrMaxTransferTooSmall, maxControlTransfer)
	}

	payload := whole[fixed:]
	firstChunk := maxControlTransfer - fixed
	restChunk := maxControlTransfer - HeaderSize - FragmentHeaderSize

	total := 1
	if rem := len(payload) - firstChunk; rem > 0 {
		total += (rem + restChunk - 1) / restChunk
	}

	out := make([][]byte, 0, total)

	first := make([]byte, maxControlTransfer)
	copy(first, whole[:fixed])
	copy(first[fixed:], payload[:firstChunk])
	out = append(out, first)
	payload = payload[firstChunk:]

	for len(payload) > 0 {
		n := min(restChunk, len(payload))
		frag := make([]byte, HeaderSize+FragmentHeaderSize+n)
		copy(frag[:HeaderSize], whole[:HeaderSize])
		copy(frag[HeaderSize+FragmentHeaderSize:], payload[:n])
		out = append(out, frag)
		payload = payload[n:]
	}

	for i, frag := range out {
		binary.LittleEndian.PutUint32(frag[4:8], uint32(len(frag)))
		binary.LittleEndian.PutUint32(frag[12:16], uint32(total))
		binary.LittleEndian.PutUint32(frag[16:20], uint32(i))
	}
	return out, nil
}

// Reassembler joins incoming fragments into complete messages.
// It is not safe for concurrent use.
type Reassembler struct {
	partial map[uint32]*partialMessage
}

type partialMessage struct {
	total uint32
	next  uint32
	data  []byte
}

// NewReassembler creates an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{partial: make(map[uint32]*partialMessage)}
}

// Add feeds one raw fragment. When the last fragment of a message arrives it
// returns the rebuilt single-fragment bytes, ready for Decode. Messages
// without a fragment header pass straight through.
func (r *Reassembler) Add(data []byte) ([]byte, bool, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, false, err
	}
	if !h.Type.fragmented() {
		return data, true, nil
	}
	if len(data) < HeaderSize+FragmentHeaderSize {
		return nil, false, fmt.Errorf("%w: fragment is %d bytes", ErrShortMessage, len(data))
	}

	total := binary.LittleEndian.Uint32(data[12:16])
	current := binary.LittleEndian.Uint32(data[16:20])

	if total <= 1 {
		delete(r.partial, h.TransactionID)
		return data, true, nil
	}

	p, ok := r.partial[h.TransactionID]
	if !ok {
		if current != 0 {
			return nil, false, fmt.Errorf("%w: transaction %d starts at fragment %d", ErrFragmentOutOfSequence, h.TransactionID, current)
		}
		p = &partialMessage{total: total, data: append([]byte(nil), data...)}
		p.next = 1
		r.partial[h.TransactionID] = p
		return nil, false, nil
	}

	if current != p.next || total != p.total {
		delete(r.partial, h.TransactionID)
		return nil, false, fmt.Errorf("%w: transaction %d got %d/%d, want %d/%d",
			ErrFragmentOutOfSequence, h.TransactionID, current, total, p.next, p.total)
	}

	p.data = append(p.data, data[HeaderSize+FragmentHeaderSize:]...)
	p.next++
	if p.next < p.total {
		return nil, false, nil
	}

	delete(r.partial, h.TransactionID)
	out := p.data
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[12:16], 1)
	binary.LittleEndian.PutUint32(out[16:20], 0)
	return out, true, nil
}

// Pending returns the number of messages still waiting for fragments.
func (r *Reassembler) Pending() int {
	return len(r.partial)
}
