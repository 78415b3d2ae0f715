package mbim

import "fmt"

// Status is the status code carried by *_DONE messages.
type Status uint32

const (
	StatusSuccess                       Status = 0
	StatusBusy                          Status = 1
	StatusFailure                       Status = 2
	StatusSimNotInserted                Status = 3
	StatusBadSim                        Status = 4
	StatusPinRequired                   Status = 5
	StatusPinDisabled                   Status = 6
	StatusNotRegistered                 Status = 7
	StatusProvidersNotFound             Status = 8
	StatusNoDeviceSupport               Status = 9
	StatusProviderNotVisible            Status = 10
	StatusDataClassNotAvailable         Status = 11
	StatusPacketServiceDetached         Status = 12
	StatusMaxActivatedContexts          Status = 13
	StatusNotInitialized                Status = 14
	StatusVoiceCallInProgress           Status = 15
	StatusContextNotActivated           Status = 16
	StatusServiceNotActivated           Status = 17
	StatusInvalidAccessString           Status = 18
	StatusInvalidUserNamePwd            Status = 19
	StatusRadioPowerOff                 Status = 20
	StatusInvalidParameters             Status = 21
	StatusReadFailure                   Status = 22
	StatusWriteFailure                  Status = 23
	StatusNoPhonebook                   Status = 25
	StatusParameterTooLong              Status = 26
	StatusStkBusy                       Status = 27
	StatusOperationNotAllowed           Status = 28
	StatusMemoryFailure                 Status = 29
	StatusInvalidMemoryIndex            Status = 30
	StatusMemoryFull                    Status = 31
	StatusFilterNotSupported            Status = 32
	StatusDssInstanceLimit              Status = 33
	StatusInvalidDeviceServiceOperation Status = 34
	StatusAuthIncorrectAutn             Status = 35
	StatusAuthSyncFailure               Status = 36
	StatusAuthAmfNotSet                 Status = 37
	StatusContextNotSupported           Status = 38
	StatusSmsUnknownSmscAddress         Status = 100
	StatusSmsNetworkTimeout             Status = 101
	StatusSmsLangNotSupported           Status = 102
	StatusSmsEncodingNotSupported       Status = 103
	StatusSmsFormatNotSupported         Status = 104
)

var statusNames = map[Status]string{
	StatusSuccess:                       "success",
	StatusBusy:                          "busy",
	StatusFailure:                       "failure",
	StatusSimNotInserted:                "sim-not-inserted",
	StatusBadSim:                        "bad-sim",
	StatusPinRequired:                   "pin-required",
	StatusPinDisabled:                   "pin-disabled",
	StatusNotRegistered:                 "not-registered",
	StatusProvidersNotFound:             "providers-not-found",
	StatusNoDeviceSupport:               "no-device-support",
	StatusProviderNotVisible:            "provider-not-visible",
	StatusDataClassNotAvailable:         "data-class-not-available",
	StatusPacketServiceDetached:         "packet-service-detached",
	StatusMaxActivatedContexts:          "max-activated-contexts",
	StatusNotInitialized:                "not-initialized",
	StatusVoiceCallInProgress:           "voice-call-in-progress",
	StatusContextNotActivated:           "context-not-activated",
	StatusServiceNotActivated:           "service-not-activated",
	StatusInvalidAccessString:           "invalid-access-string",
	StatusInvalidUserNamePwd:            "invalid-user-name-pwd",
	StatusRadioPowerOff:                 "radio-power-off",
	StatusInvalidParameters:             "invalid-parameters",
	StatusReadFailure:                   "read-failure",
	StatusWriteFailure:                  "write-failure",
	StatusNoPhonebook:                   "no-phonebook",
	StatusParameterTooLong:              "parameter-too-long",
	StatusStkBusy:                       "stk-busy",
	StatusOperationNotAllowed:           "operation-not-allowed",
	StatusMemoryFailure:                 "memory-failure",
	StatusInvalidMemoryIndex:            "invalid-memory-index",
	StatusMemoryFull:                    "memory-full",
	StatusFilterNotSupported:            "filter-not-supported",
	StatusDssInstanceLimit:              "dss-instance-limit",
	StatusInvalidDeviceServiceOperation: "invalid-device-service-operation",
	StatusAuthIncorrectAutn:             "auth-incorrect-autn",
	StatusAuthSyncFailure:               "auth-sync-failure",
	StatusAuthAmfNotSet:                 "auth-amf-not-set",
	StatusContextNotSupported:           "context-not-supported",
	StatusSmsUnknownSmscAddress:         "sms-unknown-smsc-address",
	StatusSmsNetworkTimeout:             "sms-network-timeout",
	StatusSmsLangNotSupported:           "sms-lang-not-supported",
	StatusSmsEncodingNotSupported:       "sms-encoding-not-supported",
	StatusSmsFormatNotSupported:         "sms-format-not-supported",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%08x)", uint32(s))
}

// StatusError is returned when a *_DONE message reports a non-success status.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned status %s", e.Status)
}

// ProtocolErrorCode is the error code carried by FUNCTION_ERROR and
// HOST_ERROR messages.
type ProtocolErrorCode uint32

const (
	ProtocolErrorTimeoutFragment       ProtocolErrorCode = 1
	ProtocolErrorFragmentOutOfSequence ProtocolErrorCode = 2
	ProtocolErrorLengthMismatch        ProtocolErrorCode = 3
	ProtocolErrorDuplicatedTID         ProtocolErrorCode = 4
	ProtocolErrorNotOpened             ProtocolErrorCode = 5
	ProtocolErrorUnknown               ProtocolErrorCode = 6
	ProtocolErrorCancel                ProtocolErrorCode = 7
	ProtocolErrorMaxTransfer           ProtocolErrorCode = 8
)

func (c ProtocolErrorCode) String() string {
	switch c {
	case ProtocolErrorTimeoutFragment:
		return "timeout-fragment"
	case ProtocolErrorFragmentOutOfSequence:
		return "fragment-out-of-sequence"
	case ProtocolErrorLengthMismatch:
		return "length-mismatch"
	case ProtocolErrorDuplicatedTID:
		return "duplicated-tid"
	case ProtocolErrorNotOpened:
		return "not-opened"
	case ProtocolErrorUnknown:
		return "unknown"
	case ProtocolErrorCancel:
		return "cancel"
	case ProtocolErrorMaxTransfer:
		return "max-transfer"
	default:
		return fmt.Sprintf("unknown (0x%08x)", uint32(c))
	}
}

// ProtocolError is returned when the device answers with FUNCTION_ERROR.
type ProtocolError struct {
	Code ProtocolErrorCode
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("device reported protocol error %s", e.Code)
}
