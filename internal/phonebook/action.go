package phonebook

import "fmt"

// ActionKind identifies one of the phonebook operations.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionQueryConfiguration
	ActionReadOne
	ActionReadAll
	ActionWrite
	ActionUpdateEntry
	ActionDeleteOne
	ActionDeleteAll
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionQueryConfiguration:
		return "query-configuration"
	case ActionReadOne:
		return "read"
	case ActionReadAll:
		return "read-all"
	case ActionWrite:
		return "write"
	case ActionUpdateEntry:
		return "entry-update"
	case ActionDeleteOne:
		return "delete"
	case ActionDeleteAll:
		return "delete-all"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is the single operation requested for a run, with its literal
// arguments. Index is used by ActionReadOne and ActionDeleteOne; Input holds
// the raw "Name,Number[,Index]" string for ActionWrite and ActionUpdateEntry.
type Action struct {
	Kind  ActionKind
	Index int32
	Input string
}
