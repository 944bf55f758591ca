package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// OperatorRole represents the privilege level of an internal operator account
// used to authenticate against the ops/admin surface (dead-letter requeue,
// adapter credential issuance, tenant config edits). Adapted from the
// teacher's end-customer User/UserRole: here the subject is always internal
// staff, never a payer or merchant.
type OperatorRole string

const (
	OperatorRoleAdmin     OperatorRole = "admin"
	OperatorRoleOnCall    OperatorRole = "on_call"
	OperatorRoleReadOnly  OperatorRole = "read_only"
)

// Operator is an internal account authenticating to the ops/admin HTTP
// surface. It carries no payment, merchant or wallet concepts.
type Operator struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         OperatorRole `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	DeletedAt    null.Time    `json:"-"`
}

// CreateOperatorInput is the admin-only input for provisioning an operator account.
type CreateOperatorInput struct {
	Email    string       `json:"email" binding:"required,email"`
	Name     string       `json:"name" binding:"required,min=2,max=100"`
	Password string       `json:"password" binding:"required,min=8"`
	Role     OperatorRole `json:"role" binding:"required"`
}

// LoginInput is the operator login request.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful operator login.
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Operator     *Operator `json:"operator"`
}
