// Package apperr is the error taxonomy shared by the checkout engine and its
// collaborators. Business-rule rejections carry an actionable message;
// infrastructure failures collapse into TransactionAborted with a generic one.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidRequest       Kind = "InvalidRequest"
	KindProductNotFound      Kind = "ProductNotFound"
	KindInsufficientStock    Kind = "InsufficientStock"
	KindInsufficientFunds    Kind = "InsufficientFunds"
	KindPaymentNotAuthorized Kind = "PaymentNotAuthorized"
	KindTransactionAborted   Kind = "TransactionAborted"
	KindNotFound             Kind = "NotFound"
	KindInvalidTransition    Kind = "InvalidTransition"
	KindConflict             Kind = "Conflict"
	KindUnauthorized         Kind = "Unauthorized"
	KindForbidden            Kind = "Forbidden"
)

const abortedMessage = "something went wrong, please try again"

// Error is a classified failure. Message is safe to show to the caller; Err is not.
type Error struct {
	Kind      Kind
	Message   string
	ProductID int64
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrInsufficientStock).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidRequest       = &Error{Kind: KindInvalidRequest}
	ErrProductNotFound      = &Error{Kind: KindProductNotFound}
	ErrInsufficientStock    = &Error{Kind: KindInsufficientStock}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds}
	ErrPaymentNotAuthorized = &Error{Kind: KindPaymentNotAuthorized}
	ErrTransactionAborted   = &Error{Kind: KindTransactionAborted}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidTransition    = &Error{Kind: KindInvalidTransition}
	ErrConflict             = &Error{Kind: KindConflict}
)

func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func ProductNotFound(productID int64) *Error {
	return &Error{Kind: KindProductNotFound, ProductID: productID, Message: fmt.Sprintf("product %d not found", productID)}
}

func InsufficientStock(productID int64) *Error {
	return &Error{Kind: KindInsufficientStock, ProductID: productID, Message: fmt.Sprintf("insufficient stock for product %d", productID)}
}

func InsufficientFunds() *Error {
	return &Error{Kind: KindInsufficientFunds, Message: "insufficient wallet balance"}
}

func PaymentNotAuthorized(err error) *Error {
	return &Error{Kind: KindPaymentNotAuthorized, Message: "payment was not authorized", Err: err}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InvalidTransition(from, to string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot move order from %s to %s", from, to)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Aborted wraps an infrastructure failure. The cause is kept for logs only.
func Aborted(err error) *Error {
	return &Error{Kind: KindTransactionAborted, Message: abortedMessage, Err: err}
}

// Normalize returns err unchanged when it is already classified, otherwise
// wraps it as TransactionAborted. nil stays nil.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Aborted(err)
}

// KindOf returns the kind of a classified error, or TransactionAborted.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransactionAborted
}

// PublicMessage is what the caller is allowed to see.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindTransactionAborted {
		return appErr.Message
	}
	return abortedMessage
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidRequest, KindInsufficientStock, KindInsufficientFunds:
		return http.StatusBadRequest
	case KindPaymentNotAuthorized:
		return http.StatusPaymentRequired
	case KindProductNotFound, KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
