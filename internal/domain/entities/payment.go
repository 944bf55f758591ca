package entities

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle status of a Payment, mutated only by the saga engine.
type PaymentStatus string

const (
	PaymentStatusInitiated         PaymentStatus = "INITIATED"
	PaymentStatusValidated         PaymentStatus = "VALIDATED"
	PaymentStatusFundsReserved     PaymentStatus = "FUNDS_RESERVED"
	PaymentStatusRouted            PaymentStatus = "ROUTED"
	PaymentStatusClearingSubmitted PaymentStatus = "CLEARING_SUBMITTED"
	PaymentStatusClearingAccepted  PaymentStatus = "CLEARING_ACCEPTED"
	PaymentStatusClearingRejected  PaymentStatus = "CLEARING_REJECTED"
	PaymentStatusSettled           PaymentStatus = "SETTLED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusReversed          PaymentStatus = "REVERSED"
)

// IsTerminal reports whether the status will never transition further.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusSettled, PaymentStatusFailed, PaymentStatusReversed:
		return true
	default:
		return false
	}
}

// PaymentTypeCode is a tenant-configurable payment type, e.g. RTP, ACH_CREDIT, WIRE_TRANSFER.
type PaymentTypeCode string

// UETR is a 32-character Unique End-to-end Transaction Reference, preserved across hops.
type UETR string

// NewUETR generates a new 32-hex-character UETR.
func NewUETR() UETR {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// fall back to a UUID-derived value; rand.Read on crypto/rand practically never fails
		return UETR(uuid.New().String())
	}
	return UETR(hex.EncodeToString(b))
}

// Party identifies one side of a payment. Account is an opaque string keyed
// into the external ledger/core-banking system; Agent is an optional BIC.
type Party struct {
	Account string `json:"account"`
	Agent   string `json:"agent,omitempty"`
}

// ReasonCode is drawn from a fixed enumeration surfaced in pain.002 responses;
// internal diagnostic detail is never leaked into it.
type ReasonCode string

const (
	ReasonNone               ReasonCode = ""
	ReasonFraudRejected      ReasonCode = "FR01"
	ReasonInsufficientFunds  ReasonCode = "AM04"
	ReasonInvalidAccount     ReasonCode = "AC01"
	ReasonAdapterUnavailable ReasonCode = "AG01"
	ReasonAdapterReject      ReasonCode = "RJCT"
	ReasonTenantPolicy       ReasonCode = "AM02"
	ReasonSystemError        ReasonCode = "SYST"
	ReasonSagaTimeout        ReasonCode = "TM01"
	ReasonCancelled          ReasonCode = "CAN1"
)

// Payment is the aggregate root: identity, tenant scope, amount, parties,
// type, idempotency key and lifecycle status. Created by acceptance,
// mutated only by the saga engine, never deleted.
type Payment struct {
	ID              uuid.UUID       `json:"paymentId"`
	TenantID        uuid.UUID       `json:"tenantId"`
	BusinessUnitID  string          `json:"businessUnitId,omitempty"`
	CustomerID      string          `json:"customerId,omitempty"`
	UETR            UETR            `json:"uetr"`
	IdempotencyKey  string          `json:"-"`
	Amount          Money           `json:"amount"`
	Debtor          Party           `json:"debtor"`
	Creditor        Party           `json:"creditor"`
	PaymentType     PaymentTypeCode `json:"paymentType"`
	LocalInstrument string          `json:"localInstrument,omitempty"`
	Status          PaymentStatus   `json:"status"`
	ReasonCode      ReasonCode      `json:"reasonCode,omitempty"`
	ConfigVersion   int64           `json:"-"`
	OriginalMsgID   string          `json:"originalMsgId,omitempty"`
	EndToEndID      string          `json:"endToEndId,omitempty"`
	ClearingRail    ClearingRail    `json:"clearingRail,omitempty"`
	TrackingRef     string          `json:"trackingRef,omitempty"`
	// RoutingCandidates is the ordered adapter list the Route step resolved,
	// consulted by SubmitToClearing on a Retryable failure so the saga can
	// try the next candidate without invoking the resolver again.
	RoutingCandidates []ClearingAdapterID `json:"-"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// Context returns the tenant scope this payment belongs to.
func (p *Payment) Context() TenantContext {
	return TenantContext{TenantID: p.TenantID, BusinessUnitID: p.BusinessUnitID, CustomerID: p.CustomerID}
}

// AcceptPaymentInput is the structural-validation-only input to Accept.
type AcceptPaymentInput struct {
	Amount          string          `json:"amount" binding:"required"`
	Currency        string          `json:"currency" binding:"required"`
	DebtorAccount   string          `json:"debtorAccount" binding:"required"`
	DebtorAgent     string          `json:"debtorAgent,omitempty"`
	CreditorAccount string          `json:"creditorAccount" binding:"required"`
	CreditorAgent   string          `json:"creditorAgent,omitempty"`
	PaymentType     PaymentTypeCode `json:"paymentType" binding:"required"`
	LocalInstrument string          `json:"localInstrument,omitempty"`
	OriginalMsgID   string          `json:"originalMsgId,omitempty"`
	EndToEndID      string          `json:"endToEndId,omitempty"`
}

// Validate performs structural-only validation per spec §4.1: required
// fields, amount > 0, currency known. Business validation happens later in
// the saga's Validate step so it can be retried/compensated.
func (in *AcceptPaymentInput) Validate() error {
	if in.DebtorAccount == "" || in.CreditorAccount == "" {
		return fmt.Errorf("debtor and creditor accounts are required")
	}
	if in.PaymentType == "" {
		return fmt.Errorf("payment type is required")
	}
	money, err := NewMoney(in.Amount, in.Currency)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	if !money.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if !IsKnownCurrency(in.Currency) {
		return fmt.Errorf("unknown currency %q", in.Currency)
	}
	return nil
}

// AcceptResult is returned by Accept: either a freshly created payment or
// the original payment replayed verbatim for a duplicate idempotency key.
type AcceptResult struct {
	PaymentID uuid.UUID     `json:"paymentId"`
	UETR      UETR          `json:"uetr"`
	Status    PaymentStatus `json:"status"`
	Replayed  bool          `json:"-"`
}
