package mbim

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MessageType identifies an MBIM control message.
type MessageType uint32

const (
	TypeOpen           MessageType = 0x00000001
	TypeClose          MessageType = 0x00000002
	TypeCommand        MessageType = 0x00000003
	TypeHostError      MessageType = 0x00000004
	TypeOpenDone       MessageType = 0x80000001
	TypeCloseDone      MessageType = 0x80000002
	TypeCommandDone    MessageType = 0x80000003
	TypeFunctionError  MessageType = 0x80000004
	TypeIndicateStatus MessageType = 0x80000007
)

func (t MessageType) String() string {
	switch t {
	case TypeOpen:
		return "open"
	case TypeClose:
		return "close"
	case TypeCommand:
		return "command"
	case TypeHostError:
		return "host-error"
	case TypeOpenDone:
		return "open-done"
	case TypeCloseDone:
		return "close-done"
	case TypeCommandDone:
		return "command-done"
	case TypeFunctionError:
		return "function-error"
	case TypeIndicateStatus:
		return "indicate-status"
	default:
		return fmt.Sprintf("unknown (0x%08x)", uint32(t))
	}
}

// IsResponse reports whether the type flows from device to host.
func (t MessageType) IsResponse() bool {
	return t&0x80000000 != 0
}

// fragmented reports whether messages of this type carry a fragment header.
func (t MessageType) fragmented() bool {
	return t == TypeCommand || t == TypeCommandDone || t == TypeIndicateStatus
}

// CommandType selects between query and set on a COMMAND message.
type CommandType uint32

const (
	CommandQuery CommandType = 0
	CommandSet   CommandType = 1
)

func (c CommandType) String() string {
	switch c {
	case CommandQuery:
		return "query"
	case CommandSet:
		return "set"
	default:
		return fmt.Sprintf("unknown (%d)", uint32(c))
	}
}

// Wire layout sizes.
//
//	[Header - 12 bytes]
//	  bytes 0-3:  message type
//	  bytes 4-7:  message length, header included
//	  bytes 8-11: transaction ID
//	[Fragment header - 8 bytes, COMMAND / COMMAND_DONE / INDICATE_STATUS only]
//	  bytes 0-3: total fragments
//	  bytes 4-7: current fragment
//	[COMMAND body]
//	  16 bytes service UUID, CID, command type, buffer length, buffer
//	[COMMAND_DONE body]
//	  16 bytes service UUID, CID, status, buffer length, buffer
//	[INDICATE_STATUS body]
//	  16 bytes service UUID, CID, buffer length, buffer
//
// All integers are little-endian. UUIDs travel in RFC 4122 byte order.
const (
	HeaderSize         = 12
	FragmentHeaderSize = 8

	commandFixedSize        = HeaderSize + FragmentHeaderSize + 16 + 4 + 4 + 4
	indicateStatusFixedSize = HeaderSize + FragmentHeaderSize + 16 + 4 + 4
	openSize                = HeaderSize + 4
	statusOnlySize          = HeaderSize + 4
)

// Codec errors.
var (
	ErrShortMessage   = errors.New("message too short")
	ErrLengthMismatch = errors.New("message length mismatch")
	ErrUnknownType    = errors.New("unknown message type")
)

// Header is the common prefix of every MBIM message.
type Header struct {
	Type          MessageType
	Length        uint32
	TransactionID uint32
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(data))
	}
	return Header{
		Type:          MessageType(binary.LittleEndian.Uint32(data[0:4])),
		Length:        binary.LittleEndian.Uint32(data[4:8]),
		TransactionID: binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// Message is a fully reassembled MBIM control message. Which fields are
// meaningful depends on Type.
type Message struct {
	Type          MessageType
	TransactionID uint32

	// OPEN
	MaxControlTransfer uint32

	// COMMAND, COMMAND_DONE, INDICATE_STATUS
	Service     uuid.UUID
	CID         uint32
	CommandType CommandType
	Buffer      []byte

	// COMMAND_DONE, OPEN_DONE, CLOSE_DONE
	Status Status

	// FUNCTION_ERROR, HOST_ERROR
	ErrorStatus ProtocolErrorCode
}

// NewOpen builds an OPEN request.
func NewOpen(maxControlTransfer uint32) *Message {
	return &Message{Type: TypeOpen, MaxControlTransfer: maxControlTransfer}
}

// NewClose builds a CLOSE request.
func NewClose() *Message {
	return &Message{Type: TypeClose}
}

// NewCommand builds a COMMAND request for the given service and CID.
func NewCommand(service uuid.UUID, cid uint32, ct CommandType, buffer []byte) *Message {
	return &Message{
		Type:        TypeCommand,
		Service:     service,
		CID:         cid,
		CommandType: ct,
		Buffer:      buffer,
	}
}

// NewCommandDone builds a COMMAND_DONE response. Used on the device side.
func NewCommandDone(tid uint32, service uuid.UUID, cid uint32, status Status, buffer []byte) *Message {
	return &Message{
		Type:          TypeCommandDone,
		TransactionID: tid,
		Service:       service,
		CID:           cid,
		Status:        status,
		Buffer:        buffer,
	}
}

// Encode serializes the message as a single fragment.
func (m *Message) Encode() []byte {
	var out []byte
	switch m.Type {
	case TypeOpen:
		out = make([]byte, openSize)
		binary.LittleEndian.PutUint32(out[12:16], m.MaxControlTransfer)
	case TypeClose:
		out = make([]byte, HeaderSize)
	case TypeOpenDone, TypeCloseDone:
		out = make([]byte, statusOnlySize)
		binary.LittleEndian.PutUint32(out[12:16], uint32(m.Status))
	case TypeFunctionError, TypeHostError:
		out = make([]byte, statusOnlySize)
		binary.LittleEndian.PutUint32(out[12:16], uint32(m.ErrorStatus))
	case TypeCommand, TypeCommandDone:
		out = make([]byte, commandFixedSize+len(m.Buffer))
		binary.LittleEndian.PutUint32(out[12:16], 1)
		binary.LittleEndian.PutUint32(out[16:20], 0)
		copy(out[20:36], m.Service[:])
		binary.LittleEndian.PutUint32(out[36:40], m.CID)
		if m.Type == TypeCommand {
			binary.LittleEndian.PutUint32(out[40:44], uint32(m.CommandType))
		} else {
			binary.LittleEndian.PutUint32(out[40:44], uint32(m.Status))
		}
		binary.LittleEndian.PutUint32(out[44:48], uint32(len(m.Buffer)))
		copy(out[48:], m.Buffer)
	case TypeIndicateStatus:
		out = make([]byte, indicateStatusFixedSize+len(m.Buffer))
		binary.LittleEndian.PutUint32(out[12:16], 1)
		binary.LittleEndian.PutUint32(out[16:20], 0)
		copy(out[20:36], m.Service[:])
		binary.LittleEndian.PutUint32(out[36:40], m.CID)
		binary.LittleEndian.PutUint32(out[40:44], uint32(len(m.Buffer)))
		copy(out[44:], m.Buffer)
	default:
		out = make([]byte, HeaderSize)
	}

	binary.LittleEndian.PutUint32(out[0:4], uint32(m.Type))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[8:12], m.TransactionID)
	return out
}

// Decode parses a complete, single-fragment message. Fragmented input must
// go through a Reassembler first.
func Decode(data []byte) (*Message, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if int(h.Length) != len(data) {
		return nil, fmt.Errorf("%w: header says %d, got %d", ErrLengthMismatch, h.Length, len(data))
	}

	m := &Message{Type: h.Type, TransactionID: h.TransactionID}

	switch h.Type {
	case TypeOpen:
		if len(data) < openSize {
			return nil, fmt.Errorf("%w: open message is %d bytes", ErrShortMessage, len(data))
		}
		m.MaxControlTransfer = binary.LittleEndian.Uint32(data[12:16])
	case TypeClose:
	case TypeOpenDone, TypeCloseDone:
		if len(data) < statusOnlySize {
			return nil, fmt.Errorf("%w: %s message is %d bytes", ErrShortMessage, h.Type, len(data))
		}
		m.Status = Status(binary.LittleEndian.Uint32(data[12:16]))
	case TypeFunctionError, TypeHostError:
		if len(data) < statusOnlySize {
			return nil, fmt.Errorf("%w: %s message is %d bytes", ErrShortMessage, h.Type, len(data))
		}
		m.ErrorStatus = ProtocolErrorCode(binary.LittleEndian.Uint32(data[12:16]))
	case TypeCommand, TypeCommandDone:
		if len(data) < commandFixedSize {
			return nil, fmt.Errorf("%w: %s message is %d bytes", ErrShortMessage, h.Type, len(data))
		}
		if total := binary.LittleEndian.Uint32(data[12:16]); total != 1 {
			return nil, fmt.Errorf("%w: %d fragments", ErrNotReassembled, total)
		}
		copy(m.Service[:], data[20:36])
		m.CID = binary.LittleEndian.Uint32(data[36:40])
		if h.Type == TypeCommand {
			m.CommandType = CommandType(binary.LittleEndian.Uint32(data[40:44]))
		} else {
			m.Status = Status(binary.LittleEndian.Uint32(data[40:44]))
		}
		n := binary.LittleEndian.Uint32(data[44:48])
		if uint64(commandFixedSize)+uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: buffer length %d exceeds message", ErrShortMessage, n)
		}
		m.Buffer = data[commandFixedSize : commandFixedSize+int(n)]
	case TypeIndicateStatus:
		if len(data) < indicateStatusFixedSize {
			return nil, fmt.Errorf("%w: %s message is %d bytes", ErrShortMessage, h.Type, len(data))
		}
		if total := binary.LittleEndian.Uint32(data[12:16]); total != 1 {
			return nil, fmt.Errorf("%w: %d fragments", ErrNotReassembled, total)
		}
		copy(m.Service[:], data[20:36])
		m.CID = binary.LittleEndian.Uint32(data[36:40])
		n := binary.LittleEndian.Uint32(data[40:44])
		if uint64(indicateStatusFixedSize)+uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: buffer length %d exceeds message", ErrShortMessage, n)
		}
		m.Buffer = data[indicateStatusFixedSize : indicateStatusFixedSize+int(n)]
	default:
		return nil, fmt.Errorf("%w: 0x%08x", ErrUnknownType, uint32(h.Type))
	}

	return m, nil
}

// Result returns the error carried by a response message, or nil when the
// device reported success.
func (m *Message) Result() error {
	switch m.Type {
	case TypeCommandDone, TypeOpenDone, TypeCloseDone:
		if m.Status != StatusSuccess {
			return &StatusError{Status: m.Status}
		}
		return nil
	case TypeFunctionError, TypeHostError:
		return &ProtocolError{Code: m.ErrorStatus}
	default:
		return nil
	}
}
