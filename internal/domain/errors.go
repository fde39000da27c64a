package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindAuthorization   ErrorKind = "authorization"
	KindNotFound        ErrorKind = "not_found"
	KindEmptyCart       ErrorKind = "empty_cart"
	KindConflict        ErrorKind = "conflict"
	KindStore           ErrorKind = "store"
)

// Error is a classified failure whose Message is safe to show to callers.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidInput      = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrInvalidQuantity   = &Error{Kind: KindValidation, Message: "invalid crop_id or quantity"}
	ErrInvalidStatus     = &Error{Kind: KindValidation, Message: "invalid order status"}
	ErrCustomerRequired  = &Error{Kind: KindValidation, Message: "customer_id is required: pass a customer id or null"}
	ErrUnknownCustomer   = &Error{Kind: KindValidation, Message: "customer does not exist"}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden         = &Error{Kind: KindAuthorization, Message: "access denied"}
	ErrNotOwned          = &Error{Kind: KindAuthorization, Message: "order does not contain your crops"}
	ErrNotPending        = &Error{Kind: KindAuthorization, Message: "only pending orders can be deleted"}
	ErrForeignCropInCart = &Error{Kind: KindAuthorization, Message: "cart contains crops not owned by this farmer"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrCartItemNotFound  = &Error{Kind: KindNotFound, Message: "cart item not found or not owned"}
	ErrOrderNotFound     = &Error{Kind: KindNotFound, Message: "order not found"}
	ErrCropNotFound      = &Error{Kind: KindNotFound, Message: "crop not found or you do not have access"}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart, Message: "cart is empty or contains unavailable items"}
	ErrNotAvailable      = &Error{Kind: KindConflict, Message: "crop is not available"}
	ErrInvalidTransition = &Error{Kind: KindConflict, Message: "order status transition not allowed"}
)

type CropIssueReason string

const (
	ReasonNonexistent CropIssueReason = "nonexistent"
	ReasonUnavailable CropIssueReason = "unavailable"
	ReasonNotOwned    CropIssueReason = "not_owned"
)

type CropIssue struct {
	CropID int64           `json:"crop_id"`
	Reason CropIssueReason `json:"reason"`
}

// CropValidationError lists every requested crop that could not be ordered.
type CropValidationError struct {
	Issues []CropIssue
}

func (e *CropValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%d: %s", issue.CropID, issue.Reason))
	}
	return "invalid crops (" + strings.Join(parts, ", ") + ")"
}

// KindOf classifies err; anything unrecognised is a store failure.
func KindOf(err error) ErrorKind {
	var cv *CropValidationError
	if errors.As(err, &cv) {
		return KindValidation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// PublicMessage returns the caller-facing text for err, hiding store details.
func PublicMessage(err error) string {
	var cv *CropValidationError
	if errors.As(err, &cv) {
		return cv.Error()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
