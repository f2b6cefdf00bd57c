package ai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why the gateway could not produce text.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindNetwork           ErrorKind = "network_error"
	KindNonSuccessStatus  ErrorKind = "non_success_status"
	KindUnrecognizedShape ErrorKind = "unrecognized_response_shape"
	// KindMissingCredential also covers a gateway without a base URL or
	// model. Such errors wrap ErrNotConfigured.
	KindMissingCredential ErrorKind = "missing_credential"
)

// ErrNotConfigured is wrapped by the error Ready returns when a key is
// present but the base URL or model is empty.
var ErrNotConfigured = errors.New("gateway not configured")

// GatewayError is the only error type returned by Client.Generate.
type GatewayError struct {
	Kind       ErrorKind
	StatusCode int    // set for KindNonSuccessStatus
	Message    string // provider-supplied message, if any
	RequestID  string
	Err        error
}

func (e *GatewayError) Error() string {
	if e == nil {
		return "gateway error"
	}
	msg := string(e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status=%d", msg, e.StatusCode)
	}
	if e.RequestID != "" {
		msg += " request_id=" + e.RequestID
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "llm gateway: " + msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, &GatewayError{Kind: KindTimeout}).
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok || t == nil {
		return false
	}
	return t.Kind == e.Kind && (t.StatusCode == 0 || t.StatusCode == e.StatusCode)
}
