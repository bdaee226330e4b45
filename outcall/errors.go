package outcall

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when an envelope breaks its invariants
	// before it is dispatched.
	ErrInvalidRequest = errors.New("invalid outcall request")

	// ErrInvalidResponse is returned by the Transport when the body of a
	// successful outcall is not a JSON-RPC response.
	ErrInvalidResponse = errors.New("invalid JSON-RPC response")
)

// RejectionCode classifies why the execution environment refused or
// failed an outcall.
type RejectionCode int

const (
	RejectionCodeNoError RejectionCode = iota
	RejectionCodeSysFatal
	RejectionCodeSysTransient
	RejectionCodeDestinationInvalid
	RejectionCodeCanisterReject
	RejectionCodeCanisterError
	RejectionCodeUnknown
)

func (c RejectionCode) String() string {
	switch c {
	case RejectionCodeNoError:
		return "NoError"
	case RejectionCodeSysFatal:
		return "SysFatal"
	case RejectionCodeSysTransient:
		return "SysTransient"
	case RejectionCodeDestinationInvalid:
		return "DestinationInvalid"
	case RejectionCodeCanisterReject:
		return "CanisterReject"
	case RejectionCodeCanisterError:
		return "CanisterError"
	default:
		return "Unknown"
	}
}

// RejectionError is the failure outcome of an outcall.
type RejectionError struct {
	Code    RejectionCode
	Message string
}

// NewRejection builds a RejectionError.
func NewRejection(code RejectionCode, format string, args ...any) *RejectionError {
	return &RejectionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("The http_request resulted into error. RejectionCode: %s, Error: %s", e.Code, e.Message)
}

// RejectionCodeOf extracts the rejection code from err, or
// RejectionCodeUnknown when err is not a rejection.
func RejectionCodeOf(err error) RejectionCode {
	if err == nil {
		return RejectionCodeNoError
	}
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Code
	}
	return RejectionCodeUnknown
}
