package phonebook

import (
	"context"
	"sync"
	"time"

	"github.com/vitaminmoo/mbim-tool/internal/device"
	"github.com/vitaminmoo/mbim-tool/internal/mbim"
)

// Transport is the part of a device the phonebook core borrows.
// *device.Device satisfies it.
type Transport interface {
	Submit(ctx context.Context, req *mbim.Message, timeout time.Duration) *device.Call
	Hold() (release func())
}

// session is the per-command state: a hold on the transport and a context
// derived from the caller's. finalize releases both exactly once.
type session struct {
	transport Transport
	ctx       context.Context
	cancel    context.CancelFunc
	release   func()
	once      sync.Once
}

func newSession(ctx context.Context, t Transport) *session {
	ctx, cancel := context.WithCancel(ctx)
	return &session{
		transport: t,
		ctx:       ctx,
		cancel:    cancel,
		release:   t.Hold(),
	}
}

// finalize reports whether this call did the release.
func (s *session) finalize() bool {
	released := false
	s.once.Do(func() {
		s.cancel()
		s.release()
		released = true
	})
	return released
}
