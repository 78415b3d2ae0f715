package mbim

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeOpen(t *testing.T) {
	m := NewOpen(4096)
	m.TransactionID = 1

	got := m.Encode()
	want := []byte{
		0x01, 0x00, 0x00, 0x00, // type
		0x10, 0x00, 0x00, 0x00, // length
		0x01, 0x00, 0x00, 0x00, // tid
		0x00, 0x10, 0x00, 0x00, // max control transfer
	}
	assert.Equal(t, want, got)
}

func TestEncodeCommandLayout(t *testing.T) {
	m := PhonebookReadQuery(PhonebookFlagIndex, 7)
	m.TransactionID = 42

	data := m.Encode()
	require.Len(t, data, commandFixedSize+8)

	assert.Equal(t, uint32(TypeCommand), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(len(data)), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(data[8:12]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[12:16]), "total fragments")
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[16:20]), "current fragment")
	assert.Equal(t, []byte{0x4b, 0xf3, 0x84, 0x76}, data[20:24], "service UUID in RFC byte order")
	assert.Equal(t, CIDPhonebookRead, binary.LittleEndian.Uint32(data[36:40]))
	assert.Equal(t, uint32(CommandQuery), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(data[44:48]))
	assert.Equal(t, uint32(PhonebookFlagIndex), binary.LittleEndian.Uint32(data[48:52]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(data[52:56]))
}

func TestDecodeRoundTripByType(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
	}{
		{name: "open", msg: &Message{Type: TypeOpen, TransactionID: 1, MaxControlTransfer: 4096}},
		{name: "close", msg: &Message{Type: TypeClose, TransactionID: 2}},
		{name: "open done", msg: &Message{Type: TypeOpenDone, TransactionID: 1, Status: StatusSuccess}},
		{name: "close done", msg: &Message{Type: TypeCloseDone, TransactionID: 2, Status: StatusFailure}},
		{name: "function error", msg: &Message{Type: TypeFunctionError, TransactionID: 3, ErrorStatus: ProtocolErrorNotOpened}},
		{name: "command done", msg: NewCommandDone(9, ServicePhonebook, CIDPhonebookDelete, StatusSuccess, []byte{1, 2, 3, 4})},
		{
			name: "indicate status",
			msg:  &Message{Type: TypeIndicateStatus, TransactionID: 0, Service: ServiceSMS, CID: 2, Buffer: []byte{9, 9, 9, 9}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.msg.Encode())
			require.NoError(t, err)

			if len(tt.msg.Buffer) == 0 {
				got.Buffer = nil
			}
			assert.Equal(t, tt.msg, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := NewCommandDone(1, ServicePhonebook, CIDPhonebookWrite, StatusSuccess, nil).Encode()

	lying := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(lying[44:48], 100)

	unknown := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(unknown[0:4], 0x12345678)

	fragmented := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(fragmented[12:16], 2)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: ErrShortMessage},
		{name: "length mismatch", data: valid[:len(valid)-1], wantErr: ErrLengthMismatch},
		{name: "buffer length past end", data: lying, wantErr: ErrShortMessage},
		{name: "unknown type", data: unknown, wantErr: ErrUnknownType},
		{name: "unassembled fragment", data: fragmented, wantErr: ErrNotReassembled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMessageResult(t *testing.T) {
	ok := NewCommandDone(1, ServicePhonebook, CIDPhonebookRead, StatusSuccess, nil)
	assert.NoError(t, ok.Result())

	failed := NewCommandDone(1, ServicePhonebook, CIDPhonebookRead, StatusNoPhonebook, nil)
	var statusErr *StatusError
	require.ErrorAs(t, failed.Result(), &statusErr)
	assert.Equal(t, StatusNoPhonebook, statusErr.Status)
	assert.Contains(t, failed.Result().Error(), "no-phonebook")

	fnErr := &Message{Type: TypeFunctionError, ErrorStatus: ProtocolErrorCancel}
	var protoErr *ProtocolError
	require.ErrorAs(t, fnErr.Result(), &protoErr)
	assert.Equal(t, ProtocolErrorCancel, protoErr.Code)
}

func TestSummary(t *testing.T) {
	m := PhonebookConfigurationQuery()
	m.TransactionID = 5
	assert.Equal(t, "command tid=5 service=phonebook cid=configuration type=query buffer=0", m.Summary())

	done := NewCommandDone(5, ServicePhonebook, CIDPhonebookWrite, StatusMemoryFull, nil)
	assert.Equal(t, "command-done tid=5 service=phonebook cid=write status=memory-full buffer=0", done.Summary())
}

func TestStatusStringUnknown(t *testing.T) {
	assert.Equal(t, "unknown (0x000000ff)", Status(0xff).String())
	assert.Equal(t, "unknown (0x00000063)", ProtocolErrorCode(0x63).String())
}
