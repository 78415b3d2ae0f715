package mbim

import (
	"fmt"

	"github.com/google/uuid"
)

// Device service UUIDs.
var (
	ServiceBasicConnect = uuid.MustParse("a289cc33-bcbb-8b4f-b6b0-133ec2aae6df")
	ServiceSMS          = uuid.MustParse("533fbeeb-14fe-4467-9f90-33a223e56c3f")
	ServiceUSSD         = uuid.MustParse("e550a0c8-5e82-479e-82f7-10abf4c3351f")
	ServicePhonebook    = uuid.MustParse("4bf38476-1e6a-41db-b1d8-bed289c25bdb")
	ServiceSTK          = uuid.MustParse("d8f20131-fcb5-4e17-8602-d6ed3816164c")
	ServiceAuth         = uuid.MustParse("1d2b5ff7-0aa1-48b2-aa52-50f15767174e")
	ServiceDSS          = uuid.MustParse("c08a26dd-7718-4382-8482-6e0d583c4d0e")
)

var serviceNames = map[uuid.UUID]string{
	ServiceBasicConnect: "basic-connect",
	ServiceSMS:          "sms",
	ServiceUSSD:         "ussd",
	ServicePhonebook:    "phonebook",
	ServiceSTK:          "stk",
	ServiceAuth:         "auth",
	ServiceDSS:          "dss",
}

// ServiceName returns the short name of a known service, or its UUID string.
func ServiceName(service uuid.UUID) string {
	if name, ok := serviceNames[service]; ok {
		return name
	}
	return service.String()
}

// Phonebook service CIDs.
const (
	CIDPhonebookConfiguration uint32 = 1
	CIDPhonebookRead          uint32 = 2
	CIDPhonebookDelete        uint32 = 3
	CIDPhonebookWrite         uint32 = 4
)

var cidNames = map[uuid.UUID]map[uint32]string{
	ServicePhonebook: {
		CIDPhonebookConfiguration: "configuration",
		CIDPhonebookRead:          "read",
		CIDPhonebookDelete:        "delete",
		CIDPhonebookWrite:         "write",
	},
}

// CIDName returns the name of a command within a service.
func CIDName(service uuid.UUID, cid uint32) string {
	if name, ok := cidNames[service][cid]; ok {
		return name
	}
	return fmt.Sprintf("unknown (%d)", cid)
}
