package models

import "errors"

var (
	// ErrInsufficientCredits means the debit would take the balance below
	// zero. The balance is left untouched.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDuplicateCredit means a purchase-credit transaction with the same
	// correlation id already exists on the ledger.
	ErrDuplicateCredit = errors.New("duplicate credit")

	// ErrDuplicateOrder means a purchase order with this id already exists.
	ErrDuplicateOrder = errors.New("duplicate order")

	// ErrInvalidTransition means the requested order status change is not
	// legal from the order's current status.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrOrderNotFound means no purchase order exists for the given id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrVerificationFailed means the gateway did not report the payment as
	// captured, or the payment belongs to a different gateway order.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrGenerationFailed means every synthesis call in the batch failed.
	// The batch debit is not refunded.
	ErrGenerationFailed = errors.New("all image generations failed")

	// ErrUnknownProfile means no export profile exists under that name.
	ErrUnknownProfile = errors.New("unknown export profile")

	// ErrSourceUnavailable means the source image for an export could not
	// be read.
	ErrSourceUnavailable = errors.New("source image unavailable")
)
