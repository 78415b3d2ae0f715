package phonebook

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitaminmoo/mbim-tool/internal/config"
	"github.com/vitaminmoo/mbim-tool/internal/device"
	"github.com/vitaminmoo/mbim-tool/internal/mbim"
)

// mockTransport is a Transport double. Submit is mocked; holds are counted.
type mockTransport struct {
	mock.Mock

	holds    atomic.Int32
	releases atomic.Int32
}

func (m *mockTransport) Submit(ctx context.Context, req *mbim.Message, timeout time.Duration) *device.Call {
	args := m.Called(ctx, req, timeout)
	return args.Get(0).(*device.Call)
}

func (m *mockTransport) Hold() func() {
	m.holds.Add(1)
	return func() {
		m.releases.Add(1)
	}
}

func completed(resp *mbim.Message, err error) *device.Call {
	call := device.NewCall(nil)
	call.Complete(resp, err)
	return call
}

func commandDone(cid uint32, status mbim.Status, buf []byte) *mbim.Message {
	return mbim.NewCommandDone(1, mbim.ServicePhonebook, cid, status, buf)
}

type harness struct {
	transport *mockTransport
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newHarness() *harness {
	return &harness{transport: &mockTransport{}}
}

func (h *harness) runner(opts ...RunnerOption) *Runner {
	return NewRunner(h.transport, NewFormatter(&h.stdout, &h.stderr), opts...)
}

func (h *harness) expectSubmit(match func(*mbim.Message) bool, call *device.Call) {
	h.transport.On("Submit", mock.Anything, mock.MatchedBy(match), config.CommandTimeout).Return(call).Once()
}

func (h *harness) assertReleased(t *testing.T) {
	t.Helper()
	assert.Equal(t, int32(1), h.transport.holds.Load())
	assert.Equal(t, int32(1), h.transport.releases.Load())
}

func TestRunRequests(t *testing.T) {
	ackWrite := commandDone(mbim.CIDPhonebookWrite, mbim.StatusSuccess, nil)
	ackDelete := commandDone(mbim.CIDPhonebookDelete, mbim.StatusSuccess, nil)
	readBuf, err := mbim.EncodePhonebookReadResponse(nil)
	require.NoError(t, err)
	readDone := commandDone(mbim.CIDPhonebookRead, mbim.StatusSuccess, readBuf)

	tests := []struct {
		name   string
		action Action
		want   func() *mbim.Message
		resp   *mbim.Message
		output string
	}{
		{
			name:   "read one",
			action: Action{Kind: ActionReadOne, Index: 3},
			want:   func() *mbim.Message { return mbim.PhonebookReadQuery(mbim.PhonebookFlagIndex, 3) },
			resp:   readDone,
			output: "Successfully read phonebook entry/entries",
		},
		{
			name:   "read all",
			action: Action{Kind: ActionReadAll},
			want:   func() *mbim.Message { return mbim.PhonebookReadQuery(mbim.PhonebookFlagAll, 0) },
			resp:   readDone,
			output: "Phonebook entries count: 0",
		},
		{
			name:   "delete one",
			action: Action{Kind: ActionDeleteOne, Index: 9},
			want:   func() *mbim.Message { return mbim.PhonebookDeleteSet(mbim.PhonebookFlagIndex, 9) },
			resp:   ackDelete,
			output: "Phonebook entry/entries successfully deleted",
		},
		{
			name:   "delete all",
			action: Action{Kind: ActionDeleteAll},
			want:   func() *mbim.Message { return mbim.PhonebookDeleteSet(mbim.PhonebookFlagAll, 0) },
			resp:   ackDelete,
			output: "Phonebook entry/entries successfully deleted",
		},
		{
			name:   "write",
			action: Action{Kind: ActionWrite, Input: "Alice,555-1000"},
			want: func() *mbim.Message {
				m, _ := mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveUnused, 0, "555-1000", "Alice")
				return m
			},
			resp:   ackWrite,
			output: "Phonebook entry successfully written/updated",
		},
		{
			name:   "entry update",
			action: Action{Kind: ActionUpdateEntry, Input: "Bob,555-2000,2"},
			want: func() *mbim.Message {
				m, _ := mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveIndex, 2, "555-2000", "Bob")
				return m
			},
			resp:   ackWrite,
			output: "Phonebook entry successfully written/updated",
		},
		{
			name:   "entry update with non-numeric index",
			action: Action{Kind: ActionUpdateEntry, Input: "Bob,555-2000,x"},
			want: func() *mbim.Message {
				m, _ := mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveIndex, 0, "555-2000", "Bob")
				return m
			},
			resp:   ackWrite,
			output: "Phonebook entry successfully written/updated",
		},
		{
			name:   "entry update with out of range index",
			action: Action{Kind: ActionUpdateEntry, Input: "Bob,555-2000,99999999999"},
			want: func() *mbim.Message {
				m, _ := mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveIndex, 1215752191, "555-2000", "Bob")
				return m
			},
			resp:   ackWrite,
			output: "Phonebook entry successfully written/updated",
		},
		{
			name:   "delete highest index",
			action: Action{Kind: ActionDeleteOne, Index: 2147483647},
			want:   func() *mbim.Message { return mbim.PhonebookDeleteSet(mbim.PhonebookFlagIndex, 2147483647) },
			resp:   ackDelete,
			output: "Phonebook entry/entries successfully deleted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			want := tt.want()
			h.expectSubmit(func(req *mbim.Message) bool {
				return assert.ObjectsAreEqual(want, req)
			}, completed(tt.resp, nil))

			err := h.runner().Run(context.Background(), tt.action)
			require.NoError(t, err)

			h.transport.AssertExpectations(t)
			assert.Contains(t, h.stdout.String(), tt.output)
			assert.Empty(t, h.stderr.String())
			h.assertReleased(t)
		})
	}
}

func TestRunReadAllRendersEntriesInOrder(t *testing.T) {
	buf, err := mbim.EncodePhonebookReadResponse([]mbim.PhonebookEntry{
		{Index: 1, Number: "555-1000", Name: "Alice"},
		{Index: 2, Number: "555-2000", Name: "Bob"},
	})
	require.NoError(t, err)

	h := newHarness()
	h.expectSubmit(func(req *mbim.Message) bool { return req.CID == mbim.CIDPhonebookRead },
		completed(commandDone(mbim.CIDPhonebookRead, mbim.StatusSuccess, buf), nil))

	require.NoError(t, h.runner().Run(context.Background(), Action{Kind: ActionReadAll}))

	out := h.stdout.String()
	assert.Contains(t, out, "Phonebook entries count: 2")

	order := []string{"Entry index:", "1", "555-1000", "Alice", "Entry index:", "2", "555-2000", "Bob"}
	pos := 0
	for _, s := range order {
		i := strings.Index(out[pos:], s)
		require.GreaterOrEqual(t, i, 0, "%q not found after offset %d in:\n%s", s, pos, out)
		pos += i + len(s)
	}
}

func TestRunConfiguration(t *testing.T) {
	tests := []struct {
		name  string
		state mbim.PhonebookState
		want  string
	}{
		{"initialized", mbim.PhonebookStateInitialized, "initialized"},
		{"not initialized", mbim.PhonebookStateNotInitialized, "not-initialized"},
		{"unrecognized state", mbim.PhonebookState(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := mbim.EncodePhonebookConfigurationResponse(mbim.PhonebookConfiguration{
				State:           tt.state,
				TotalEntries:    250,
				UsedEntries:     3,
				MaxNumberLength: 40,
				MaxNameLength:   14,
			})

			h := newHarness()
			h.expectSubmit(func(req *mbim.Message) bool {
				return req.CID == mbim.CIDPhonebookConfiguration && req.CommandType == mbim.CommandQuery
			}, completed(commandDone(mbim.CIDPhonebookConfiguration, mbim.StatusSuccess, buf), nil))

			require.NoError(t, h.runner().Run(context.Background(), Action{Kind: ActionQueryConfiguration}))

			out := h.stdout.String()
			assert.Contains(t, out, "Phonebook configuration retrieved:")
			assert.Regexp(t, `Phonebook state:\s+`+tt.want+`\n`, out)
			assert.Regexp(t, `Number of entries:\s+250`, out)
			assert.Regexp(t, `Used entries:\s+3`, out)
			assert.Regexp(t, `Max number length:\s+40`, out)
			assert.Regexp(t, `Max name length:\s+14`, out)
			h.assertReleased(t)
		})
	}
}

func TestRunTransportFailure(t *testing.T) {
	h := newHarness()
	h.expectSubmit(func(req *mbim.Message) bool { return req.CID == mbim.CIDPhonebookDelete },
		completed(nil, device.ErrTimeout))

	err := h.runner().Run(context.Background(), Action{Kind: ActionDeleteAll})
	require.Error(t, err)
	assert.Equal(t, ErrCodeTransportFailure, Kind(err))

	assert.Empty(t, h.stdout.String())
	assert.Equal(t, 1, strings.Count(h.stderr.String(), "error: operation failed: operation timed out"))
	h.assertReleased(t)
}

func TestRunDecodeFailure(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		resp   *mbim.Message
		stderr string
	}{
		{
			name:   "status failure",
			action: Action{Kind: ActionDeleteOne, Index: 1},
			resp:   commandDone(mbim.CIDPhonebookDelete, mbim.StatusFailure, nil),
			stderr: "error: couldn't parse response message: device returned status failure",
		},
		{
			name:   "truncated configuration",
			action: Action{Kind: ActionQueryConfiguration},
			resp:   commandDone(mbim.CIDPhonebookConfiguration, mbim.StatusSuccess, []byte{1, 0}),
			stderr: "error: couldn't parse response message:",
		},
		{
			name:   "wrong cid",
			action: Action{Kind: ActionReadAll},
			resp:   commandDone(mbim.CIDPhonebookWrite, mbim.StatusSuccess, nil),
			stderr: "error: couldn't parse response message:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.expectSubmit(func(*mbim.Message) bool { return true }, completed(tt.resp, nil))

			err := h.runner().Run(context.Background(), tt.action)
			require.Error(t, err)
			assert.Equal(t, ErrCodeDecodeFailure, Kind(err))
			assert.Contains(t, h.stderr.String(), tt.stderr)
			assert.Empty(t, h.stdout.String())
			h.assertReleased(t)
		})
	}
}

func TestRunInputFailureSendsNothing(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		stderr string
	}{
		{"write missing", Action{Kind: ActionWrite, Input: "OnlyName"}, "error: couldn't parse input string, missing arguments"},
		{"write too many", Action{Kind: ActionWrite, Input: "A,B,C,D"}, "error: couldn't parse input string, too many arguments"},
		{"update missing", Action{Kind: ActionUpdateEntry, Input: "A,B"}, "error: couldn't parse input string, missing arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			err := h.runner().Run(context.Background(), tt.action)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidInput, Kind(err))
			assert.Contains(t, h.stderr.String(), tt.stderr)

			h.transport.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
			h.assertReleased(t)
		})
	}
}

func TestRunNoAction(t *testing.T) {
	h := newHarness()

	err := h.runner().Run(context.Background(), Action{Kind: ActionNone})
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidInput, Kind(err))
	assert.Zero(t, h.transport.holds.Load())
}

func TestRunCancelledContextReachesTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness()
	h.transport.On("Submit", mock.MatchedBy(func(ctx context.Context) bool {
		return errors.Is(ctx.Err(), context.Canceled)
	}), mock.Anything, mock.Anything).Return(completed(nil, context.Canceled)).Once()

	err := h.runner().Run(ctx, Action{Kind: ActionReadAll})
	require.Error(t, err)
	assert.Equal(t, ErrCodeTransportFailure, Kind(err))
	assert.Contains(t, h.stderr.String(), "error: operation failed: context canceled")
	h.assertReleased(t)
}

func TestRunSessionContextIsCancelledAfterwards(t *testing.T) {
	var seen context.Context

	h := newHarness()
	h.transport.On("Submit", mock.MatchedBy(func(ctx context.Context) bool {
		seen = ctx
		return true
	}), mock.Anything, mock.Anything).Return(completed(commandDone(mbim.CIDPhonebookDelete, mbim.StatusSuccess, nil), nil)).Once()

	require.NoError(t, h.runner().Run(context.Background(), Action{Kind: ActionDeleteAll}))
	require.NotNil(t, seen)
	assert.ErrorIs(t, seen.Err(), context.Canceled)
}

func TestRunWaiterAndTimeout(t *testing.T) {
	var waited []string

	h := newHarness()
	h.transport.On("Submit", mock.Anything, mock.Anything, 2*time.Second).
		Return(completed(commandDone(mbim.CIDPhonebookDelete, mbim.StatusSuccess, nil), nil)).Once()

	r := h.runner(
		WithTimeout(2*time.Second),
		WithWaiter(func(call *device.Call, label string) {
			<-call.Done()
			waited = append(waited, label)
		}),
	)
	require.NoError(t, r.Run(context.Background(), Action{Kind: ActionDeleteAll}))

	h.transport.AssertExpectations(t)
	assert.Equal(t, []string{"Deleting phonebook entries"}, waited)
}

func TestSessionFinalizeOnce(t *testing.T) {
	tr := &mockTransport{}
	s := newSession(context.Background(), tr)

	assert.True(t, s.finalize())
	assert.False(t, s.finalize())
	assert.Equal(t, int32(1), tr.releases.Load())
	assert.ErrorIs(t, s.ctx.Err(), context.Canceled)
}
