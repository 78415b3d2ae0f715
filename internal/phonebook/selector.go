package phonebook

import (
	"fmt"
	"io"
	"sync"

	"github.com/agilira/go-errors"
)

// Options holds the raw phonebook flag values. An index of 0 and an empty
// string both mean the flag was not given.
type Options struct {
	QueryConfiguration bool
	Read               int32
	ReadAll            bool
	Write              string
	EntryUpdate        string
	Delete             int32
	DeleteAll          bool
}

// count returns how many actions o requests.
func (o Options) count() int {
	n := 0
	for _, set := range []bool{
		o.QueryConfiguration,
		o.Read != 0,
		o.ReadAll,
		o.Write != "",
		o.EntryUpdate != "",
		o.Delete != 0,
		o.DeleteAll,
	} {
		if set {
			n++
		}
	}
	return n
}

// action returns the requested action, checked in a fixed order.
func (o Options) action() Action {
	switch {
	case o.QueryConfiguration:
		return Action{Kind: ActionQueryConfiguration}
	case o.Read != 0:
		return Action{Kind: ActionReadOne, Index: o.Read}
	case o.ReadAll:
		return Action{Kind: ActionReadAll}
	case o.Delete != 0:
		return Action{Kind: ActionDeleteOne, Index: o.Delete}
	case o.DeleteAll:
		return Action{Kind: ActionDeleteAll}
	case o.Write != "":
		return Action{Kind: ActionWrite, Input: o.Write}
	case o.EntryUpdate != "":
		return Action{Kind: ActionUpdateEntry, Input: o.EntryUpdate}
	default:
		return Action{Kind: ActionNone}
	}
}

// Selector decides which action a set of Options requests. The decision is
// made on first use and reused afterwards, so the "too many actions" error
// is reported at most once.
type Selector struct {
	opts   Options
	stderr io.Writer

	once   sync.Once
	count  int
	action Action
	err    error
}

// NewSelector returns a Selector over opts. Errors are reported to stderr.
func NewSelector(opts Options, stderr io.Writer) *Selector {
	return &Selector{opts: opts, stderr: stderr}
}

func (s *Selector) check() {
	s.once.Do(func() {
		s.count = s.opts.count()
		if s.count > 1 {
			fmt.Fprintln(s.stderr, "error: too many phonebook actions requested")
			s.err = errors.New(ErrCodeTooManyActions,
				fmt.Sprintf("too many phonebook actions requested: %d", s.count))
			return
		}
		s.action = s.opts.action()
	})
}

// Enabled reports whether exactly one action was requested. It returns an
// error when more than one was.
func (s *Selector) Enabled() (bool, error) {
	s.check()
	if s.err != nil {
		return false, s.err
	}
	return s.count == 1, nil
}

// Action returns the selected action, or an ActionNone action when nothing
// was requested.
func (s *Selector) Action() (Action, error) {
	s.check()
	return s.action, s.err
}
