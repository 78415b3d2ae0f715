package device

import (
	"sync"

	"github.com/vitaminmoo/mbim-tool/internal/mbim"
)

// Call is one outstanding request. It completes exactly once, with either
// the device response or an error.
type Call struct {
	TransactionID uint32
	Request       *mbim.Message

	done chan struct{}
	once sync.Once
	resp *mbim.Message
	err  error
}

// NewCall returns an unresolved call. Devices create calls through Submit;
// the constructor is exported for test doubles.
func NewCall(req *mbim.Message) *Call {
	c := &Call{done: make(chan struct{})}
	if req != nil {
		c.TransactionID = req.TransactionID
		c.Request = req
	}
	return c
}

// Done is closed when the call has completed.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result blocks until the call completes and returns its outcome.
func (c *Call) Result() (*mbim.Message, error) {
	<-c.done
	return c.resp, c.err
}

// Complete resolves the call. Only the first completion has any effect; it
// reports whether this invocation was the one that resolved the call.
func (c *Call) Complete(resp *mbim.Message, err error) bool {
	resolved := false
	c.once.Do(func() {
		c.resp = resp
		c.err = err
		close(c.done)
		resolved = true
	})
	return resolved
}
