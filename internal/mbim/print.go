package mbim

import (
	"fmt"
	"strings"
)

// Summary renders a one-line description of a message for debug output.
func (m *Message) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s tid=%d", m.Type, m.TransactionID)

	switch m.Type {
	case TypeOpen:
		fmt.Fprintf(&sb, " max-control-transfer=%d", m.MaxControlTransfer)
	case TypeOpenDone, TypeCloseDone:
		fmt.Fprintf(&sb, " status=%s", m.Status)
	case TypeFunctionError, TypeHostError:
		fmt.Fprintf(&sb, " error=%s", m.ErrorStatus)
	case TypeCommand:
		fmt.Fprintf(&sb, " service=%s cid=%s type=%s buffer=%d",
			ServiceName(m.Service), CIDName(m.Service, m.CID), m.CommandType, len(m.Buffer))
	case TypeCommandDone:
		fmt.Fprintf(&sb, " service=%s cid=%s status=%s buffer=%d",
			ServiceName(m.Service), CIDName(m.Service, m.CID), m.Status, len(m.Buffer))
	case TypeIndicateStatus:
		fmt.Fprintf(&sb, " service=%s cid=%s buffer=%d",
			ServiceName(m.Service), CIDName(m.Service, m.CID), len(m.Buffer))
	}
	return sb.String()
}
