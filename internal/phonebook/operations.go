package phonebook

import (
	"log/slog"
	"strconv"

	"github.com/vitaminmoo/mbim-tool/internal/mbim"
)

// handler is one row of the dispatch table.
type handler interface {
	label() string
	request(a Action, log *slog.Logger) (*mbim.Message, error)
	complete(resp *mbim.Message, f *Formatter) error
}

// operation ties a request builder to the parser and renderer of its
// response.
type operation[T any] struct {
	desc   string
	build  func(a Action, log *slog.Logger) (*mbim.Message, error)
	decode func(resp *mbim.Message) (T, error)
	render func(f *Formatter, v T)
}

func (op operation[T]) label() string {
	return op.desc
}

func (op operation[T]) request(a Action, log *slog.Logger) (*mbim.Message, error) {
	return op.build(a, log)
}

func (op operation[T]) complete(resp *mbim.Message, f *Formatter) error {
	v, err := op.decode(resp)
	if err != nil {
		return err
	}
	op.render(f, v)
	return nil
}

var operations = map[ActionKind]handler{
	ActionQueryConfiguration: operation[mbim.PhonebookConfiguration]{
		desc: "Querying phonebook configuration",
		build: func(Action, *slog.Logger) (*mbim.Message, error) {
			return mbim.PhonebookConfigurationQuery(), nil
		},
		decode: mbim.ParsePhonebookConfigurationResponse,
		render: (*Formatter).Configuration,
	},
	ActionReadOne: operation[[]mbim.PhonebookEntry]{
		desc: "Reading phonebook entry",
		build: func(a Action, _ *slog.Logger) (*mbim.Message, error) {
			return mbim.PhonebookReadQuery(mbim.PhonebookFlagIndex, uint32(a.Index)), nil
		},
		decode: mbim.ParsePhonebookReadResponse,
		render: (*Formatter).Entries,
	},
	ActionReadAll: operation[[]mbim.PhonebookEntry]{
		desc: "Reading phonebook entries",
		build: func(Action, *slog.Logger) (*mbim.Message, error) {
			return mbim.PhonebookReadQuery(mbim.PhonebookFlagAll, 0), nil
		},
		decode: mbim.ParsePhonebookReadResponse,
		render: (*Formatter).Entries,
	},
	ActionDeleteOne: operation[struct{}]{
		desc: "Deleting phonebook entry",
		build: func(a Action, _ *slog.Logger) (*mbim.Message, error) {
			return mbim.PhonebookDeleteSet(mbim.PhonebookFlagIndex, uint32(a.Index)), nil
		},
		decode: acknowledge(mbim.ParsePhonebookDeleteResponse),
		render: func(f *Formatter, _ struct{}) { f.Deleted() },
	},
	ActionDeleteAll: operation[struct{}]{
		desc: "Deleting phonebook entries",
		build: func(Action, *slog.Logger) (*mbim.Message, error) {
			return mbim.PhonebookDeleteSet(mbim.PhonebookFlagAll, 0), nil
		},
		decode: acknowledge(mbim.ParsePhonebookDeleteResponse),
		render: func(f *Formatter, _ struct{}) { f.Deleted() },
	},
	ActionWrite: operation[struct{}]{
		desc:   "Writing phonebook entry",
		build:  buildWrite,
		decode: acknowledge(mbim.ParsePhonebookWriteResponse),
		render: func(f *Formatter, _ struct{}) { f.Written() },
	},
	ActionUpdateEntry: operation[struct{}]{
		desc:   "Updating phonebook entry",
		build:  buildUpdate,
		decode: acknowledge(mbim.ParsePhonebookWriteResponse),
		render: func(f *Formatter, _ struct{}) { f.Written() },
	},
}

func acknowledge(parse func(*mbim.Message) error) func(*mbim.Message) (struct{}, error) {
	return func(resp *mbim.Message) (struct{}, error) {
		return struct{}{}, parse(resp)
	}
}

func buildWrite(a Action, _ *slog.Logger) (*mbim.Message, error) {
	in, err := ParseEntryInput(a.Input, 2)
	if err != nil {
		return nil, err
	}
	return mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveUnused, 0, in.Number, in.Name)
}

// buildUpdate writes at the index given as the third field. A non-numeric
// index becomes 0 and is sent as such.
func buildUpdate(a Action, log *slog.Logger) (*mbim.Message, error) {
	in, err := ParseEntryInput(a.Input, 3)
	if err != nil {
		return nil, err
	}

	idx := atoi(in.Index)
	if strconv.FormatInt(int64(idx), 10) != in.Index {
		log.Debug("entry index is not a plain integer", "input", in.Index, "index", idx)
	}
	return mbim.PhonebookWriteSet(mbim.PhonebookWriteFlagSaveIndex, uint32(idx), in.Number, in.Name)
}
