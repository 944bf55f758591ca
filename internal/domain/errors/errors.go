package errors

import (
	"errors"
	"net/http"

	"payorch.backend/internal/domain/entities"
)

// Kind classifies an AppError along the taxonomy every saga step, adapter
// and handler reasons about: whether it is retryable, what pain.002/camt.029
// ReasonCode it maps to, and what HTTP status the gateway returns.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindTenantPolicy       Kind = "TENANT_POLICY"
	KindFraud              Kind = "FRAUD"
	KindLedgerInsufficient Kind = "LEDGER_INSUFFICIENT"
	KindAdapterUnavailable Kind = "ADAPTER_UNAVAILABLE"
	KindAdapterReject      Kind = "ADAPTER_REJECT"
	KindConfig             Kind = "CONFIG"
	KindSystem             Kind = "SYSTEM"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindForbidden          Kind = "FORBIDDEN"
)

// Sentinel errors for errors.Is comparisons, kept for the same call sites
// the teacher used them from (repository-not-found checks, etc).
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// AppError is the taxonomy every layer above the repositories deals in:
// a Kind for saga/compensation logic, an HTTP Status for the gateway, a
// machine-readable Code for clients, and a human Message.
type AppError struct {
	Kind       Kind              `json:"-"`
	Status     int               `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	ReasonCode entities.ReasonCode `json:"reasonCode,omitempty"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Retryable reports whether the saga engine should schedule a retry for an
// error of this kind, per the retryable/terminal split in spec §5.2.
func (e *AppError) Retryable() bool {
	switch e.Kind {
	case KindAdapterUnavailable, KindSystem:
		return true
	default:
		return false
	}
}

func newAppError(kind Kind, status int, code, message string, reason entities.ReasonCode, err error) *AppError {
	return &AppError{Kind: kind, Status: status, Code: code, Message: message, ReasonCode: reason, Err: err}
}

// Validation signals a structurally or semantically invalid request; never retried.
func Validation(message string, err error) *AppError {
	return newAppError(KindValidation, http.StatusBadRequest, "VALIDATION_FAILED", message, entities.ReasonInvalidAccount, err)
}

// TenantPolicy signals the tenant's configured policy rejected the request
// (amount limit, unknown payment type, inactive tenant); never retried.
func TenantPolicy(message string, err error) *AppError {
	return newAppError(KindTenantPolicy, http.StatusUnprocessableEntity, "TENANT_POLICY_REJECTED", message, entities.ReasonTenantPolicy, err)
}

// Fraud signals the fraud adapter scored the payment above the tenant's
// configured threshold; terminal.
func Fraud(message string, err error) *AppError {
	return newAppError(KindFraud, http.StatusUnprocessableEntity, "FRAUD_REJECTED", message, entities.ReasonFraudRejected, err)
}

// LedgerInsufficient signals the ledger adapter declined to reserve funds; terminal.
func LedgerInsufficient(message string, err error) *AppError {
	return newAppError(KindLedgerInsufficient, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", message, entities.ReasonInsufficientFunds, err)
}

// AdapterUnavailable signals a transport-level failure talking to a clearing
// adapter (timeout, connection refused, 5xx, circuit open); retryable.
func AdapterUnavailable(message string, err error) *AppError {
	return newAppError(KindAdapterUnavailable, http.StatusBadGateway, "ADAPTER_UNAVAILABLE", message, entities.ReasonAdapterUnavailable, err)
}

// AdapterReject signals the clearing rail itself rejected the instruction
// (a business-level NACK); terminal.
func AdapterReject(message string, err error) *AppError {
	return newAppError(KindAdapterReject, http.StatusUnprocessableEntity, "ADAPTER_REJECTED", message, entities.ReasonAdapterReject, err)
}

// Config signals a missing or malformed tenant/adapter configuration; terminal,
// and always worth alerting on since it indicates an operator mistake.
func Config(message string, err error) *AppError {
	return newAppError(KindConfig, http.StatusInternalServerError, "CONFIG_ERROR", message, entities.ReasonSystemError, err)
}

// System signals an unexpected internal failure (DB down, panic recovered,
// serialization bug); retryable at the saga level, surfaced as 500 at the gateway.
func System(err error) *AppError {
	return newAppError(KindSystem, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", entities.ReasonSystemError, err)
}

func NotFound(message string) *AppError {
	return newAppError(KindNotFound, http.StatusNotFound, "NOT_FOUND", message, entities.ReasonNone, ErrNotFound)
}

func Conflict(message string) *AppError {
	return newAppError(KindConflict, http.StatusConflict, "CONFLICT", message, entities.ReasonNone, ErrAlreadyExists)
}

func Unauthorized(message string) *AppError {
	return newAppError(KindUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", message, entities.ReasonNone, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return newAppError(KindForbidden, http.StatusForbidden, "FORBIDDEN", message, entities.ReasonNone, ErrForbidden)
}

// AsAppError unwraps err into an *AppError, falling back to System(err) so
// every handler can assume a consistent shape without a type-assertion check.
func AsAppError(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return System(err)
}
