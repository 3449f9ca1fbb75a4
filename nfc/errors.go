package nfc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of NFC error for programmatic handling.
type ErrorCode int

const (
	// Session errors (100-199)
	ErrCodeNoDevice ErrorCode = iota + 100
	ErrCodeBusy
	ErrCodeCancelled
	ErrCodeNotAcquired
	ErrCodeNotSupported
)

const (
	// Tag operation errors (200-299)
	ErrCodeReadFailed ErrorCode = iota + 200
	ErrCodeWriteFailed
	ErrCodeEncodeFailed
	ErrCodeInvalidData
	ErrCodeCapacityExceeded
)

// NFCError provides structured error information for programmatic handling.
type NFCError struct {
	Code    ErrorCode
	Op      string // Operation that failed (e.g., "RequestTechnology", "GetTag")
	TagUID  string // Optional: UID of tag involved
	Message string // Human-readable message
	Cause   error  // Underlying error
}

func (e *NFCError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.TagUID != "" {
		sb.WriteString(" (tag ")
		sb.WriteString(e.TagUID)
		sb.WriteString(")")
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *NFCError) Unwrap() error {
	return e.Cause
}

// Is matches any *NFCError with the same Code, so callers can compare
// against the package sentinels with errors.Is.
func (e *NFCError) Is(target error) bool {
	if t, ok := target.(*NFCError); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrNoDevice     = &NFCError{Code: ErrCodeNoDevice, Message: "no NFC device available"}
	ErrBusy         = &NFCError{Code: ErrCodeBusy, Message: "a technology request is already active"}
	ErrCancelled    = &NFCError{Code: ErrCodeCancelled, Message: "technology request cancelled"}
	ErrNotAcquired  = &NFCError{Code: ErrCodeNotAcquired, Message: "no tag acquired"}
	ErrNotSupported = &NFCError{Code: ErrCodeNotSupported, Message: "operation not supported"}
)

// NewNoDeviceError creates an error for when no reader could be opened.
func NewNoDeviceError(op string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeNoDevice,
		Op:      op,
		Message: "no NFC device available",
		Cause:   cause,
	}
}

// NewNotSupportedError creates an error for unsupported operations.
func NewNotSupportedError(op string) *NFCError {
	return &NFCError{
		Code:    ErrCodeNotSupported,
		Op:      op,
		Message: "operation not supported",
	}
}

// NewReadError creates an error for read failures.
func NewReadError(op, tagUID string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeReadFailed,
		Op:      op,
		TagUID:  tagUID,
		Message: "read failed",
		Cause:   cause,
	}
}

// NewWriteError creates an error for write failures.
func NewWriteError(op, tagUID string, cause error) *NFCError {
	return &NFCError{
		Code:    ErrCodeWriteFailed,
		Op:      op,
		TagUID:  tagUID,
		Message: "write failed",
		Cause:   cause,
	}
}

// IsNotSupportedError checks if an error indicates an unsupported operation.
func IsNotSupportedError(err error) bool {
	return GetErrorCode(err) == ErrCodeNotSupported
}

// IsCancelledError checks if an error indicates a cancelled technology request.
func IsCancelledError(err error) bool {
	return GetErrorCode(err) == ErrCodeCancelled
}

// IsBusyError checks if an error indicates another request holds the session.
func IsBusyError(err error) bool {
	return GetErrorCode(err) == ErrCodeBusy
}

// IsTagRemovedError checks if a driver error indicates the tag left the field.
// libnfc reports these only as strings.
func IsTagRemovedError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "tag removed") ||
		strings.Contains(errStr, "tag lost") ||
		strings.Contains(errStr, "Target was removed") ||
		strings.Contains(errStr, "RF Transmission Error")
}

// GetErrorCode extracts the ErrorCode from an error if it's an NFCError.
// Returns 0 if the error is not an NFCError.
func GetErrorCode(err error) ErrorCode {
	var nfcErr *NFCError
	if errors.As(err, &nfcErr) {
		return nfcErr.Code
	}
	return 0
}

// WrapError wraps an existing error with NFC context.
func WrapError(code ErrorCode, op, message string, cause error) *NFCError {
	return &NFCError{
		Code:    code,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// Errorf creates an NFCError with a formatted message.
func Errorf(code ErrorCode, op, format string, args ...any) *NFCError {
	return &NFCError{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}
