// Package device talks MBIM to a modem control node such as /dev/cdc-wdm0.
//
// A Device owns the stream, allocates transaction IDs, and runs a reader
// goroutine that reassembles fragments and routes each response to the Call
// waiting for it.
package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitaminmoo/mbim-tool/internal/mbim"
	"github.com/vitaminmoo/mbim-tool/internal/util"
)

const (
	// DefaultMaxControlTransfer is advertised in MBIM OPEN and used to
	// fragment outgoing commands.
	DefaultMaxControlTransfer = 4096

	// maxFrameSize caps a single incoming fragment.
	maxFrameSize = 65536
)

// Transport errors.
var (
	ErrTimeout        = errors.New("operation timed out")
	ErrClosed         = errors.New("device closed")
	ErrUnexpectedType = errors.New("unexpected response type")
)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		d.log = l
	}
}

// WithMaxControlTransfer overrides the maximum control transfer size.
func WithMaxControlTransfer(n int) Option {
	return func(d *Device) {
		d.maxControlTransfer = n
	}
}

// Device is an open MBIM control channel.
type Device struct {
	name               string
	rwc                io.ReadWriteCloser
	log                *slog.Logger
	maxControlTransfer int

	writeMu sync.Mutex
	nextTID atomic.Uint32
	holders atomic.Int32

	mu      sync.Mutex
	pending map[uint32]*Call
	closed  bool
	readErr error

	readerDone chan struct{}
	closeOnce  sync.Once
}

// Open opens the control node at path.
func Open(path string, opts ...Option) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return New(path, f, opts...), nil
}

// New wraps an already open stream and starts the reader.
func New(name string, rwc io.ReadWriteCloser, opts ...Option) *Device {
	d := &Device{
		name:               name,
		rwc:                rwc,
		log:                slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxControlTransfer: DefaultMaxControlTransfer,
		pending:            make(map[uint32]*Call),
		readerDone:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.readLoop()
	return d
}

// Name returns the path or label the device was opened with.
func (d *Device) Name() string {
	return d.name
}

// Hold registers a borrower of the device. The returned release function
// may be called any number of times; only the first call counts.
func (d *Device) Hold() (release func()) {
	d.holders.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			d.holders.Add(-1)
		})
	}
}

// Holders returns the number of unreleased holds.
func (d *Device) Holders() int {
	return int(d.holders.Load())
}

// nextTransactionID returns a non-zero transaction ID. Zero is reserved for
// unsolicited indications.
func (d *Device) nextTransactionID() uint32 {
	for {
		if tid := d.nextTID.Add(1); tid != 0 {
			return tid
		}
	}
}

// Submit sends req and returns immediately. The returned call completes when
// the matching response arrives, when timeout elapses, when ctx is done, or
// when the device fails. req is not modified.
func (d *Device) Submit(ctx context.Context, req *mbim.Message, timeout time.Duration) *Call {
	msg := *req
	msg.TransactionID = d.nextTransactionID()
	call := NewCall(&msg)

	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		call.Complete(nil, ErrClosed)
		return call
	case d.readErr != nil:
		err := d.readErr
		d.mu.Unlock()
		call.Complete(nil, fmt.Errorf("device read failed: %w", err))
		return call
	}
	d.pending[msg.TransactionID] = call
	d.mu.Unlock()

	d.log.Debug("submitting request", "msg", msg.Summary(), "timeout", timeout)

	if err := d.write(&msg); err != nil {
		d.finish(call, nil, err)
		return call
	}

	go func() {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-call.Done():
		case <-timer.C:
			d.finish(call, nil, fmt.Errorf("%w after %s (transaction %d)", ErrTimeout, timeout, msg.TransactionID))
		case <-ctx.Done():
			d.finish(call, nil, fmt.Errorf("operation cancelled: %w", ctx.Err()))
		}
	}()

	return call
}

// Command submits req and waits for the outcome.
func (d *Device) Command(ctx context.Context, req *mbim.Message, timeout time.Duration) (*mbim.Message, error) {
	return d.Submit(ctx, req, timeout).Result()
}

// OpenSession performs the MBIM OPEN handshake.
func (d *Device) OpenSession(ctx context.Context, timeout time.Duration) error {
	resp, err := d.Command(ctx, mbim.NewOpen(uint32(d.maxControlTransfer)), timeout)
	if err != nil {
		return fmt.Errorf("failed to open MBIM session: %w", err)
	}
	if err := resp.Result(); err != nil {
		return fmt.Errorf("failed to open MBIM session: %w", err)
	}
	d.log.Debug("MBIM session open", "device", d.name)
	return nil
}

// CloseSession sends MBIM CLOSE.
func (d *Device) CloseSession(ctx context.Context, timeout time.Duration) error {
	resp, err := d.Command(ctx, mbim.NewClose(), timeout)
	if err != nil {
		return fmt.Errorf("failed to close MBIM session: %w", err)
	}
	if err := resp.Result(); err != nil {
		return fmt.Errorf("failed to close MBIM session: %w", err)
	}
	d.log.Debug("MBIM session closed", "device", d.name)
	return nil
}

// Close closes the stream, stops the reader and fails every pending call.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		if n := d.Holders(); n > 0 {
			d.log.Debug("closing device with active holders", "holders", n)
		}

		err = d.rwc.Close()
		<-d.readerDone
		d.failPending(ErrClosed)
	})
	return err
}

func (d *Device) write(msg *mbim.Message) error {
	frags, err := mbim.Fragments(msg, d.maxControlTransfer)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	for i, frag := range frags {
		d.traceFrame("out", frag)
		if _, err := d.rwc.Write(frag); err != nil {
			return fmt.Errorf("failed to write fragment %d/%d: %w", i+1, len(frags), err)
		}
	}
	return nil
}

// finish removes call from the pending set and completes it.
func (d *Device) finish(call *Call, resp *mbim.Message, err error) {
	d.mu.Lock()
	if d.pending[call.TransactionID] == call {
		delete(d.pending, call.TransactionID)
	}
	d.mu.Unlock()

	if call.Complete(resp, err) && err != nil {
		d.log.Debug("request failed", "tid", call.TransactionID, "error", err)
	}
}

func (d *Device) failPending(err error) {
	d.mu.Lock()
	calls := d.pending
	d.pending = make(map[uint32]*Call)
	d.mu.Unlock()

	for _, call := range calls {
		call.Complete(nil, err)
	}
}

func (d *Device) readLoop() {
	defer close(d.readerDone)

	br := bufio.NewReaderSize(d.rwc, d.maxControlTransfer)
	reasm := mbim.NewReassembler()

	for {
		frame, err := readFrame(br)
		if err != nil {
			d.mu.Lock()
			closed := d.closed
			if !closed {
				d.readErr = err
			}
			d.mu.Unlock()

			if closed {
				return
			}
			d.log.Debug("reader stopped", "error", err)
			d.failPending(fmt.Errorf("device read failed: %w", err))
			return
		}
		d.traceFrame("in", frame)

		data, complete, err := reasm.Add(frame)
		if err != nil {
			d.failTransaction(frame, fmt.Errorf("failed to reassemble response: %w", err))
			continue
		}
		if !complete {
			continue
		}

		msg, err := mbim.Decode(data)
		if err != nil {
			d.failTransaction(data, fmt.Errorf("failed to decode response: %w", err))
			continue
		}
		d.dispatch(msg)
	}
}

// readFrame reads one header-delimited MBIM message or fragment.
func readFrame(r io.Reader) ([]byte, error) {
	var hdr [mbim.HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	h, _ := mbim.ParseHeader(hdr[:])
	if h.Length < mbim.HeaderSize || h.Length > maxFrameSize {
		return nil, fmt.Errorf("invalid frame length %d", h.Length)
	}

	frame := make([]byte, h.Length)
	copy(frame, hdr[:])
	if _, err := io.ReadFull(r, frame[mbim.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("truncated frame: %w", err)
	}
	return frame, nil
}

// failTransaction completes the call named in data's header, if any.
func (d *Device) failTransaction(data []byte, err error) {
	h, herr := mbim.ParseHeader(data)
	if herr != nil {
		d.log.Debug("dropping unreadable frame", "error", err)
		return
	}

	d.mu.Lock()
	call := d.pending[h.TransactionID]
	d.mu.Unlock()

	if call == nil {
		d.log.Debug("dropping bad frame", "tid", h.TransactionID, "error", err)
		return
	}
	d.finish(call, nil, err)
}

func (d *Device) dispatch(msg *mbim.Message) {
	d.log.Debug("received response", "msg", msg.Summary())

	if msg.Type == mbim.TypeIndicateStatus {
		d.log.Debug("ignoring indication",
			"service", mbim.ServiceName(msg.Service),
			"cid", mbim.CIDName(msg.Service, msg.CID))
		return
	}

	d.mu.Lock()
	call := d.pending[msg.TransactionID]
	d.mu.Unlock()

	if call == nil {
		d.log.Debug("no pending request for response", "tid", msg.TransactionID)
		return
	}

	switch {
	case msg.Type == mbim.TypeFunctionError:
		d.finish(call, nil, msg.Result())
	case msg.Type != expectedResponse(call.Request.Type):
		d.finish(call, nil, fmt.Errorf("%w: got %s for %s", ErrUnexpectedType, msg.Type, call.Request.Type))
	default:
		d.finish(call, msg, nil)
	}
}

func expectedResponse(t mbim.MessageType) mbim.MessageType {
	switch t {
	case mbim.TypeOpen:
		return mbim.TypeOpenDone
	case mbim.TypeClose:
		return mbim.TypeCloseDone
	default:
		return mbim.TypeCommandDone
	}
}

func (d *Device) traceFrame(direction string, frame []byte) {
	if !d.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	d.log.Debug("frame", "dir", direction, "bytes", len(frame), "dump", "\n"+util.HexDump(frame))
}
