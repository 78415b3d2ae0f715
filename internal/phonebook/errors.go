package phonebook

import (
	goerrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for phonebook operations.
const (
	ErrCodeTooManyActions   = "PHONEBOOK_TOO_MANY_ACTIONS"
	ErrCodeInvalidInput     = "PHONEBOOK_INVALID_INPUT"
	ErrCodeTransportFailure = "PHONEBOOK_TRANSPORT_FAILURE"
	ErrCodeDecodeFailure    = "PHONEBOOK_DECODE_FAILURE"
)

// Input parser errors. Their text is printed verbatim after "error: ".
var (
	ErrTooManyArguments = goerrors.New("couldn't parse input string, too many arguments")
	ErrMissingArguments = goerrors.New("couldn't parse input string, missing arguments")
)

// Kind returns the error code carried by err, or "" when err has none.
func Kind(err error) string {
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return string(coder.ErrorCode())
	}
	return ""
}
