// Package apperr defines the error taxonomy shared by the catalog, cart and
// checkout layers and how each kind is reported to HTTP clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInsufficientStock Kind = "insufficient_stock"
	KindEmptyCart         Kind = "empty_cart"
	KindStoreFailure      Kind = "store_failure"
	KindUnauthorized      Kind = "unauthorized"
	KindConflict          Kind = "conflict"
)

// Error carries a machine-readable kind plus a human-readable message.
type Error struct {
	Op       string   // operation that failed, e.g. "cart.AddItem"
	Kind     Kind     // error class
	Message  string   // safe to show to users
	Products []string // product names involved, for InsufficientStock
	Err      error    // underlying cause
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(string(e.Kind))
	}
	if e.Message != "" && e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Message: msg}
}

func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func NotFound(op, msg string) *Error {
	return New(op, KindNotFound, msg)
}

func InvalidInput(op, msg string) *Error {
	return New(op, KindInvalidInput, msg)
}

func EmptyCart(op string) *Error {
	return New(op, KindEmptyCart, "cart is empty")
}

// InsufficientStock names every product that could not be covered.
func InsufficientStock(op string, products ...string) *Error {
	return &Error{
		Op:       op,
		Kind:     KindInsufficientStock,
		Message:  "insufficient stock for " + strings.Join(products, ", "),
		Products: products,
	}
}

// StoreFailure wraps a persistence error. If err already carries a kind it is
// returned with the operation prefixed instead of being flattened.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Kind: KindStoreFailure, Message: "storage unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindStoreFailure for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStoreFailure
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInsufficientStock, KindEmptyCart, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Payload is the JSON body sent for any failed request.
type Payload struct {
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
	Products []string `json:"products,omitempty"`
}

// ToPayload never leaks the underlying cause of a store failure.
func ToPayload(err error) Payload {
	var ae *Error
	if !errors.As(err, &ae) {
		return Payload{Kind: KindStoreFailure, Message: "internal error"}
	}
	msg := ae.Message
	if msg == "" || ae.Kind == KindStoreFailure {
		msg = "internal error"
	}
	return Payload{Kind: ae.Kind, Message: msg, Products: ae.Products}
}
