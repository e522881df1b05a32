package domain

import "errors"

// Kind classifies an error for callers that need to pick a response
// (HTTP status, ack vs reject) without matching individual sentinels.
type Kind string

const (
	KindValidation             Kind = "validation"
	KindNotFound               Kind = "not_found"
	KindAuthentication         Kind = "authentication"
	KindConflict               Kind = "conflict"
	KindUpstream               Kind = "upstream"
	KindConcurrentModification Kind = "concurrent_modification"
	KindConfiguration          Kind = "configuration"
	KindInternal               Kind = "internal"
)

// Error is a domain error carrying its Kind.
type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf returns the Kind of the first domain error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return KindInternal
}

var (
	// validation
	ErrEmptyCart                = newError(KindValidation, "cart must contain at least one item")
	ErrInvalidItem              = newError(KindValidation, "invalid cart item")
	ErrInvalidCheckoutReference = newError(KindValidation, "checkout reference cannot be empty")
	ErrInvalidMandateReference  = newError(KindValidation, "mandate reference cannot be empty")
	ErrInvalidStatus            = newError(KindValidation, "payment status cannot be empty")
	ErrInvalidSubscriberID      = newError(KindValidation, "subscriber ID cannot be empty")
	ErrInvalidBuyer             = newError(KindValidation, "buyer ID cannot be empty")
	ErrMissingEventID           = newError(KindValidation, "webhook event carries no resource id")
	ErrNotASubscriptionProduct  = newError(KindValidation, "product is not a subscription product")

	// not found
	ErrUnknownProduct     = newError(KindNotFound, "product not found")
	ErrOrderNotFound      = newError(KindNotFound, "order not found")
	ErrSubscriberNotFound = newError(KindNotFound, "subscriber not found")
	ErrPaymentNotFound    = newError(KindNotFound, "payment not found at gateway")
	ErrMandateNotFound    = newError(KindNotFound, "mandate not found at gateway")

	// authentication
	ErrMissingSignature = newError(KindAuthentication, "webhook signature headers missing")
	ErrInvalidSignature = newError(KindAuthentication, "webhook signature mismatch")

	// conflict
	ErrAlreadyLinked          = newError(KindConflict, "order already linked to a different checkout reference")
	ErrCheckoutReferenceInUse = newError(KindConflict, "checkout reference already linked to another order")
	ErrMandateConflict        = newError(KindConflict, "subscriber already active with a different mandate")
	ErrInvalidTransition      = newError(KindConflict, "order status transition not allowed")

	// upstream
	ErrUpstream = newError(KindUpstream, "upstream service failure")

	// concurrency
	ErrVersionConflict        = newError(KindConcurrentModification, "row version changed since read")
	ErrConcurrentModification = newError(KindConcurrentModification, "concurrent modification, update abandoned after retry")

	// configuration
	ErrGatewayNotConfigured = newError(KindConfiguration, "payment gateway is not configured")
)
