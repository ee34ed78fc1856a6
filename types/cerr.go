// Package types
package types

import (
	"errors"
	"fmt"
)

var ErrRecordExist = errors.New("record exist")

type ErrorKind string

const (
	KindConnection      ErrorKind = "ConnectionError"
	KindNetworkMismatch ErrorKind = "NetworkMismatchError"
	KindNotFound        ErrorKind = "NotFoundError"
	KindContractCall    ErrorKind = "ContractCallError"
	KindExternalService ErrorKind = "ExternalServiceError"
)

// Error is the single error type surfaced by the bounty components. Reason narrows
// the kind (e.g. "user_rejected" under ConnectionError) and Message is user facing.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind, and on reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// With builds a new error of the same kind and reason.
func (e *Error) With(cause error, format string, args ...interface{}) *Error {
	msg := e.Message
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: e.Kind, Reason: e.Reason, Message: msg, Cause: cause}
}

var (
	ErrConnection   = &Error{Kind: KindConnection}
	ErrNoProvider   = &Error{Kind: KindConnection, Reason: "no_provider", Message: "no wallet provider found, please install a wallet extension"}
	ErrUserRejected = &Error{Kind: KindConnection, Reason: "user_rejected", Message: "connection request was rejected in wallet"}
	ErrNotConnected = &Error{Kind: KindConnection, Reason: "not_connected", Message: "wallet is not connected"}

	ErrNetworkMismatch     = &Error{Kind: KindNetworkMismatch}
	ErrWrongNetwork        = &Error{Kind: KindNetworkMismatch, Reason: "wrong_network", Message: "wallet is connected to an unsupported network"}
	ErrNetworkAddFailed    = &Error{Kind: KindNetworkMismatch, Reason: "add_failed", Message: "failed to add network to wallet"}
	ErrNetworkSwitchFailed = &Error{Kind: KindNetworkMismatch, Reason: "switch_failed", Message: "failed to switch network"}

	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrContractCall    = &Error{Kind: KindContractCall, Message: "contract call failed"}
	ErrExternalService = &Error{Kind: KindExternalService, Message: "external service failed"}
)
