package mbim

import (
	"errors"
	"fmt"
)

// PhonebookFlag selects which entries a read or delete applies to.
type PhonebookFlag uint32

const (
	PhonebookFlagAll   PhonebookFlag = 0
	PhonebookFlagIndex PhonebookFlag = 1
)

func (f PhonebookFlag) String() string {
	switch f {
	case PhonebookFlagAll:
		return "all"
	case PhonebookFlagIndex:
		return "index"
	default:
		return fmt.Sprintf("unknown (%d)", uint32(f))
	}
}

// PhonebookWriteFlag selects where a write stores the entry.
type PhonebookWriteFlag uint32

const (
	PhonebookWriteFlagSaveUnused PhonebookWriteFlag = 0
	PhonebookWriteFlagSaveIndex  PhonebookWriteFlag = 1
)

func (f PhonebookWriteFlag) String() string {
	switch f {
	case PhonebookWriteFlagSaveUnused:
		return "save-unused"
	case PhonebookWriteFlagSaveIndex:
		return "save-index"
	default:
		return fmt.Sprintf("unknown (%d)", uint32(f))
	}
}

// PhonebookState is the phonebook readiness reported by the device.
type PhonebookState uint32

const (
	PhonebookStateNotInitialized PhonebookState = 0
	PhonebookStateInitialized    PhonebookState = 1
)

// Name returns the label for a known state. ok is false for codes the
// protocol does not define.
func (s PhonebookState) Name() (name string, ok bool) {
	switch s {
	case PhonebookStateNotInitialized:
		return "not-initialized", true
	case PhonebookStateInitialized:
		return "initialized", true
	default:
		return "", false
	}
}

// PhonebookConfiguration is the decoded configuration response.
type PhonebookConfiguration struct {
	State           PhonebookState
	TotalEntries    uint32
	UsedEntries     uint32
	MaxNumberLength uint32
	MaxNameLength   uint32
}

// PhonebookEntry is one SIM phonebook record.
type PhonebookEntry struct {
	Index  uint32
	Number string
	Name   string
}

// Response validation errors.
var (
	ErrUnexpectedMessage = errors.New("unexpected response message")
)

const (
	configurationResponseSize = 20
	phonebookEntryFixedSize   = 20
	filterBufferSize          = 8
	writeSetFixedSize         = 24
)

// PhonebookConfigurationQuery builds the configuration query. It has no
// parameters.
func PhonebookConfigurationQuery() *Message {
	return NewCommand(ServicePhonebook, CIDPhonebookConfiguration, CommandQuery, nil)
}

// PhonebookReadQuery builds a read query for one index or for all entries.
// The index is ignored by the device when flag is PhonebookFlagAll.
func PhonebookReadQuery(flag PhonebookFlag, index uint32) *Message {
	b := newBufferBuilder(filterBufferSize)
	b.putUint32(uint32(flag))
	b.putUint32(index)
	buf, _ := b.bytes()
	return NewCommand(ServicePhonebook, CIDPhonebookRead, CommandQuery, buf)
}

// PhonebookDeleteSet builds a delete request for one index or all entries.
func PhonebookDeleteSet(flag PhonebookFlag, index uint32) *Message {
	b := newBufferBuilder(filterBufferSize)
	b.putUint32(uint32(flag))
	b.putUint32(index)
	buf, _ := b.bytes()
	return NewCommand(ServicePhonebook, CIDPhonebookDelete, CommandSet, buf)
}

// PhonebookWriteSet builds a write request. Field order on the wire is
// save flag, save index, number, name.
func PhonebookWriteSet(flag PhonebookWriteFlag, index uint32, number, name string) (*Message, error) {
	b := newBufferBuilder(writeSetFixedSize)
	b.putUint32(uint32(flag))
	b.putUint32(index)
	b.putString(number)
	b.putString(name)
	buf, err := b.bytes()
	if err != nil {
		return nil, fmt.Errorf("building phonebook write: %w", err)
	}
	return NewCommand(ServicePhonebook, CIDPhonebookWrite, CommandSet, buf), nil
}

// checkResponse verifies that m answers the given phonebook CID and that the
// device reported success.
func checkResponse(m *Message, cid uint32) error {
	if m == nil {
		return fmt.Errorf("%w: no message", ErrUnexpectedMessage)
	}
	if m.Type != TypeCommandDone {
		return fmt.Errorf("%w: type %s", ErrUnexpectedMessage, m.Type)
	}
	if m.Service != ServicePhonebook || m.CID != cid {
		return fmt.Errorf("%w: %s/%s, want %s/%s", ErrUnexpectedMessage,
			ServiceName(m.Service), CIDName(m.Service, m.CID),
			ServiceName(ServicePhonebook), CIDName(ServicePhonebook, cid))
	}
	return m.Result()
}

// ParsePhonebookConfigurationResponse decodes a configuration response.
func ParsePhonebookConfigurationResponse(m *Message) (PhonebookConfiguration, error) {
	if err := checkResponse(m, CIDPhonebookConfiguration); err != nil {
		return PhonebookConfiguration{}, err
	}
	if len(m.Buffer) < configurationResponseSize {
		return PhonebookConfiguration{}, fmt.Errorf("%w: configuration needs %d bytes, have %d",
			ErrBufferTooShort, configurationResponseSize, len(m.Buffer))
	}

	r := bufferReader{buf: m.Buffer}
	var fields [5]uint32
	for i := range fields {
		fields[i], _ = r.uint32At(i * 4)
	}
	return PhonebookConfiguration{
		State:           PhonebookState(fields[0]),
		TotalEntries:    fields[1],
		UsedEntries:     fields[2],
		MaxNumberLength: fields[3],
		MaxNameLength:   fields[4],
	}, nil
}

// ParsePhonebookReadResponse decodes a read response. Entries are returned
// in the order the device listed them.
//
// Layout: entry count, then count (offset, size) pairs pointing at entry
// structs. Each struct is entry index, number (offset, size), name
// (offset, size), with string offsets relative to the struct start.
func ParsePhonebookReadResponse(m *Message) ([]PhonebookEntry, error) {
	if err := checkResponse(m, CIDPhonebookRead); err != nil {
		return nil, err
	}

	r := bufferReader{buf: m.Buffer}
	count, err := r.uint32At(0)
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}
	if uint64(count)*8+4 > uint64(len(m.Buffer)) {
		return nil, fmt.Errorf("%w: %d entries do not fit in %d bytes", ErrBufferTooShort, count, len(m.Buffer))
	}

	entries := make([]PhonebookEntry, 0, count)
	for i := 0; i < int(count); i++ {
		offset, _ := r.uint32At(4 + i*8)
		size, _ := r.uint32At(8 + i*8)
		if size < phonebookEntryFixedSize || uint64(offset)+uint64(size) > uint64(len(m.Buffer)) {
			return nil, fmt.Errorf("%w: entry %d at %d+%d", ErrBufferTooShort, i, offset, size)
		}

		er := r.at(int(offset))
		index, err := er.uint32At(0)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		number, err := er.stringAt(4)
		if err != nil {
			return nil, fmt.Errorf("entry %d number: %w", i, err)
		}
		name, err := er.stringAt(12)
		if err != nil {
			return nil, fmt.Errorf("entry %d name: %w", i, err)
		}
		entries = append(entries, PhonebookEntry{Index: index, Number: number, Name: name})
	}
	return entries, nil
}

// ParsePhonebookDeleteResponse checks a delete acknowledgement.
func ParsePhonebookDeleteResponse(m *Message) error {
	return checkResponse(m, CIDPhonebookDelete)
}

// ParsePhonebookWriteResponse checks a write acknowledgement.
func ParsePhonebookWriteResponse(m *Message) error {
	return checkResponse(m, CIDPhonebookWrite)
}

// EncodePhonebookConfigurationResponse builds the information buffer a
// device sends for a configuration query.
func EncodePhonebookConfigurationResponse(c PhonebookConfiguration) []byte {
	b := newBufferBuilder(configurationResponseSize)
	b.putUint32(uint32(c.State))
	b.putUint32(c.TotalEntries)
	b.putUint32(c.UsedEntries)
	b.putUint32(c.MaxNumberLength)
	b.putUint32(c.MaxNameLength)
	buf, _ := b.bytes()
	return buf
}

// EncodePhonebookReadResponse builds the information buffer a device sends
// for a read query.
func EncodePhonebookReadResponse(entries []PhonebookEntry) ([]byte, error) {
	structs := make([][]byte, 0, len(entries))
	for _, e := range entries {
		b := newBufferBuilder(phonebookEntryFixedSize)
		b.putUint32(e.Index)
		b.putString(e.Number)
		b.putString(e.Name)
		s, err := b.bytes()
		if err != nil {
			return nil, err
		}
		structs = append(structs, s)
	}

	head := newBufferBuilder(4 + 8*len(entries))
	head.putUint32(uint32(len(entries)))
	offset := 4 + 8*len(entries)
	for _, s := range structs {
		head.putUint32(uint32(offset))
		head.putUint32(uint32(len(s)))
		offset += len(s)
	}
	out, err := head.bytes()
	if err != nil {
		return nil, err
	}
	for _, s := range structs {
		out = append(out, s...)
	}
	return out, nil
}
