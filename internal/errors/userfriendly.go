// Package errors wraps low-level failures in operator-facing messages:
// what failed, why, and what to try next.
package errors

import (
	"strings"
)

// UserFriendlyError carries a short message plus optional reason/hint/try
// fields, each rendered on its own line when present.
type UserFriendlyError struct {
	Message string
	Reason  string
	Hint    string
	Try     string
	Err     error
}

func (e UserFriendlyError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Message)
	if e.Reason != "" {
		buf.WriteString("\n  Reason: " + e.Reason)
	}
	if e.Hint != "" {
		buf.WriteString("\n  Hint: " + e.Hint)
	}
	if e.Try != "" {
		buf.WriteString("\n  Try: " + e.Try)
	}
	if e.Err != nil {
		buf.WriteString("\n  Details: " + e.Err.Error())
	}
	return buf.String()
}

func (e UserFriendlyError) Unwrap() error {
	return e.Err
}

// WrapListenError wraps a TCP listen failure with operator-facing context.
func WrapListenError(err error, address string) error {
	if err == nil {
		return nil
	}
	return UserFriendlyError{
		Message: "Failed to start listening on " + address,
		Reason:  extractListenReason(err),
		Hint:    "Another process may already be bound to this address, or the port may require elevated privileges",
		Try:     "enipsim serve --address 0.0.0.0:44818",
		Err:     err,
	}
}

// WrapConfigError wraps a config load/parse failure with operator-facing
// context.
func WrapConfigError(err error, configPath string) error {
	if err == nil {
		return nil
	}
	return UserFriendlyError{
		Message: "Configuration error in " + configPath,
		Reason:  err.Error(),
		Hint:    "Check the YAML indentation and that tag entries use NAME=TYPE[SIZE]",
		Err:     err,
	}
}

// WrapTagSpecError wraps a malformed --tag/config tag declaration.
func WrapTagSpecError(err error, spec string) error {
	if err == nil {
		return nil
	}
	return UserFriendlyError{
		Message: "Invalid tag declaration " + spec,
		Reason:  err.Error(),
		Hint:    "Use NAME=TYPE[SIZE], e.g. COUNTER=DINT[10]",
		Err:     err,
	}
}

func extractListenReason(err error) string {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "address already in use"):
		return "Another process is already listening on this address"
	case strings.Contains(errStr, "permission denied"):
		return "Binding to this port requires elevated privileges"
	case strings.Contains(errStr, "cannot assign requested address"):
		return "The requested address is not assigned to any local interface"
	}
	return "Listener setup failed"
}
