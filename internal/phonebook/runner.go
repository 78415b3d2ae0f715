// Package phonebook runs one MBIM Phonebook operation per invocation: it
// selects the requested action, builds the request, waits for the single
// response and prints the result.
package phonebook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/agilira/go-errors"

	"github.com/vitaminmoo/mbim-tool/internal/config"
	"github.com/vitaminmoo/mbim-tool/internal/device"
	"github.com/vitaminmoo/mbim-tool/internal/mbim"
)

// state is the lifecycle of the one in-flight command.
type state int

const (
	stateIdle state = iota
	stateSubmitted
	stateSucceeded
	stateProtocolError
	stateTransportError
	stateFinalized
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSubmitted:
		return "submitted"
	case stateSucceeded:
		return "completed-success"
	case stateProtocolError:
		return "completed-protocol-error"
	case stateTransportError:
		return "completed-transport-error"
	case stateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Waiter is called after submission with the pending call. It must return
// once the call is done.
type Waiter func(call *device.Call, label string)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithWaiter sets a hook run while the request is in flight.
func WithWaiter(w Waiter) RunnerOption {
	return func(r *Runner) {
		r.wait = w
	}
}

// WithTimeout overrides the completion timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// Runner executes a single phonebook action against a transport.
type Runner struct {
	transport Transport
	format    *Formatter
	log       *slog.Logger
	wait      Waiter
	timeout   time.Duration
}

// NewRunner returns a Runner that prints through f.
func NewRunner(t Transport, f *Formatter, opts ...RunnerOption) *Runner {
	r := &Runner{
		transport: t,
		format:    f,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:   config.CommandTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) enter(cur *state, next state) {
	r.log.Debug("phonebook command state", "from", *cur, "to", next)
	*cur = next
}

// Run performs a and prints its outcome. Every failure is printed before
// Run returns; the returned error carries one of the ErrCode* codes. The
// hold on the transport is released on every path.
func (r *Runner) Run(ctx context.Context, a Action) (err error) {
	op, ok := operations[a.Kind]
	if !ok {
		return errors.New(ErrCodeInvalidInput, fmt.Sprintf("no phonebook operation for action %s", a.Kind))
	}

	s := newSession(ctx, r.transport)
	st := stateIdle
	defer func() {
		s.finalize()
		r.enter(&st, stateFinalized)
		r.log.Debug("phonebook command finished", "action", a.Kind, "success", err == nil)
	}()

	req, err := op.request(a, r.log)
	if err != nil {
		r.format.Errorf("%s", err)
		return errors.Wrap(err, ErrCodeInvalidInput, "invalid phonebook input")
	}

	r.log.Debug(op.label()+"...", "action", a.Kind, "cid", mbim.CIDName(req.Service, req.CID))
	call := s.transport.Submit(s.ctx, req, r.timeout)
	r.enter(&st, stateSubmitted)

	if r.wait != nil {
		r.wait(call, op.label())
	}

	resp, err := call.Result()
	if err != nil {
		r.enter(&st, stateTransportError)
		r.format.Errorf("operation failed: %s", err)
		return errors.Wrap(err, ErrCodeTransportFailure, "phonebook operation failed")
	}

	if err := op.complete(resp, r.format); err != nil {
		r.enter(&st, stateProtocolError)
		r.format.Errorf("couldn't parse response message: %s", err)
		return errors.Wrap(err, ErrCodeDecodeFailure, "couldn't parse phonebook response")
	}

	r.enter(&st, stateSucceeded)
	return nil
}
