// Package apierror defines the canonical error taxonomy shared by both
// services and maps it to the canonical HTTP error body, generalized from
// the single-service banking API's src/errors package.
package apierror

import (
	"net/http"
)

// Kind is one of the stable error kinds enumerated in the error taxonomy.
type Kind string

const (
	KindValidation             Kind = "VALIDATION_ERROR"
	KindCustomerNotActive      Kind = "CUSTOMER_NOT_ACTIVE"
	KindAccountNotActive       Kind = "ACCOUNT_NOT_ACTIVE"
	KindInvalidAmount          Kind = "INVALID_AMOUNT"
	KindCustomerNotFound       Kind = "CUSTOMER_NOT_FOUND"
	KindAccountNotFound        Kind = "ACCOUNT_NOT_FOUND"
	KindMovementNotFound       Kind = "MOVEMENT_NOT_FOUND"
	KindDuplicateTransaction   Kind = "DUPLICATE_TRANSACTION"
	KindDuplicateIdempotency   Kind = "DUPLICATE_IDEMPOTENCY_KEY"
	KindVersionConflict        Kind = "VERSION_CONFLICT"
	KindCustomerAlreadyExists  Kind = "CUSTOMER_ALREADY_EXISTS"
	KindInsufficientBalance    Kind = "INSUFFICIENT_BALANCE"
	KindBusinessRuleViolation  Kind = "BUSINESS_RULE_VIOLATION"
	KindInvalidReversal        Kind = "INVALID_REVERSAL"
	KindServiceUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindInternal               Kind = "INTERNAL"
)

// defaultStatus maps every kind to its default HTTP status, per §7.
var defaultStatus = map[Kind]int{
	KindValidation:            http.StatusBadRequest,
	KindCustomerNotActive:     http.StatusBadRequest,
	KindAccountNotActive:      http.StatusBadRequest,
	KindInvalidAmount:         http.StatusBadRequest,
	KindCustomerNotFound:      http.StatusNotFound,
	KindAccountNotFound:       http.StatusNotFound,
	KindMovementNotFound:      http.StatusNotFound,
	KindDuplicateTransaction:  http.StatusConflict,
	KindDuplicateIdempotency:  http.StatusConflict,
	KindVersionConflict:       http.StatusConflict,
	KindCustomerAlreadyExists: http.StatusConflict,
	KindInsufficientBalance:   http.StatusUnprocessableEntity,
	KindBusinessRuleViolation: http.StatusUnprocessableEntity,
	KindInvalidReversal:       http.StatusUnprocessableEntity,
	KindServiceUnavailable:    http.StatusServiceUnavailable,
	KindUnauthorized:          http.StatusUnauthorized,
	KindInternal:              http.StatusInternalServerError,
}

// FieldViolation describes one field-level validation failure.
type FieldViolation struct {
	Field         string      `json:"field"`
	Message       string      `json:"message"`
	RejectedValue interface{} `json:"rejectedValue,omitempty"`
}

// Error is the typed domain error every layer above the persistence port
// raises and that the error mapping layer (§4.7) turns into the canonical
// HTTP body.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Details map[string]interface{}
	Fields  []FieldViolation
}

func (e *Error) Error() string {
	return e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Status: statusFor(kind)}
}

func statusFor(kind Kind) int {
	if status, ok := defaultStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WithDetails attaches extra structured context (e.g. currentBalance,
// requestedAmount, overdraftLimit) surfaced verbatim in the error body.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

func (e *Error) WithFields(fields []FieldViolation) *Error {
	e.Fields = fields
	return e
}

func Validation(message string) *Error { return New(KindValidation, message) }

func ValidationFields(fields []FieldViolation) *Error {
	return New(KindValidation, "request failed validation").WithFields(fields)
}

func CustomerNotActive() *Error {
	return New(KindCustomerNotActive, "customer is not active")
}

func AccountNotActive() *Error {
	return New(KindAccountNotActive, "account is not active")
}

func InvalidAmount(message string) *Error { return New(KindInvalidAmount, message) }

func CustomerNotFound(customerID string) *Error {
	return New(KindCustomerNotFound, "customer not found: "+customerID)
}

func AccountNotFound(accountNumber string) *Error {
	return New(KindAccountNotFound, "account not found: "+accountNumber)
}

func MovementNotFound(movementID string) *Error {
	return New(KindMovementNotFound, "movement not found: "+movementID)
}

func DuplicateTransaction(transactionID string) *Error {
	return New(KindDuplicateTransaction, "movement with this transaction id already exists").
		WithDetails(map[string]interface{}{"transactionId": transactionID})
}

func DuplicateIdempotencyKey(existingMovementID string) *Error {
	return New(KindDuplicateIdempotency, "movement with this idempotency key already exists").
		WithDetails(map[string]interface{}{"movementId": existingMovementID})
}

func VersionConflict() *Error {
	return New(KindVersionConflict, "resource was modified concurrently, reload and retry")
}

func CustomerAlreadyExists(identification string) *Error {
	return New(KindCustomerAlreadyExists, "customer with this identification already exists").
		WithDetails(map[string]interface{}{"identification": identification})
}

func InsufficientBalance(currentBalance, requestedAmount, overdraftLimit int64) *Error {
	return New(KindInsufficientBalance, "insufficient balance for this operation").
		WithDetails(map[string]interface{}{
			"currentBalance":  currentBalance,
			"requestedAmount": requestedAmount,
			"overdraftLimit":  overdraftLimit,
		})
}

func BusinessRule(message string) *Error { return New(KindBusinessRuleViolation, message) }

func InvalidReversal(message string) *Error { return New(KindInvalidReversal, message) }

func ServiceUnavailable(message string) *Error { return New(KindServiceUnavailable, message) }

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

func Internal(message string) *Error { return New(KindInternal, message) }
