package usecases

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"payorch.backend/internal/domain/entities"
	domainerrors "payorch.backend/internal/domain/errors"
	"payorch.backend/internal/domain/repositories"
	"payorch.backend/pkg/crypto"
	"payorch.backend/pkg/jwt"
)

// OperatorAuthUsecase authenticates internal staff against the ops/admin
// HTTP surface. Grounded on the teacher's AuthUsecase.Login, adapted to the
// Operator subject and a role taxonomy instead of end-customer accounts.
type OperatorAuthUsecase struct {
	operators repositories.OperatorRepository
	jwtSvc    *jwt.JWTService
}

func NewOperatorAuthUsecase(operators repositories.OperatorRepository, jwtSvc *jwt.JWTService) *OperatorAuthUsecase {
	return &OperatorAuthUsecase{operators: operators, jwtSvc: jwtSvc}
}

// Login validates an operator's credentials and issues a token pair.
func (u *OperatorAuthUsecase) Login(ctx context.Context, input entities.LoginInput) (*entities.AuthResponse, error) {
	op, err := u.operators.GetByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.Unauthorized("invalid email or password")
		}
		return nil, domainerrors.System(err)
	}

	if !crypto.CheckPassword(input.Password, op.PasswordHash) {
		return nil, domainerrors.Unauthorized("invalid email or password")
	}

	tokens, err := u.jwtSvc.GenerateTokenPair(op.ID, op.Email, strings.ToUpper(string(op.Role)))
	if err != nil {
		return nil, domainerrors.System(err)
	}

	return &entities.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Operator:     op,
	}, nil
}

// CreateOperator provisions a new operator account, hashing the supplied
// password. Called only from the admin-gated operator-management route.
func (u *OperatorAuthUsecase) CreateOperator(ctx context.Context, input entities.CreateOperatorInput) (*entities.Operator, error) {
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, domainerrors.System(err)
	}

	op := &entities.Operator{
		ID:           uuid.New(),
		Email:        strings.ToLower(input.Email),
		Name:         input.Name,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := u.operators.Create(ctx, op); err != nil {
		if err == domainerrors.ErrAlreadyExists {
			return nil, domainerrors.Conflict("an operator with this email already exists")
		}
		return nil, domainerrors.System(err)
	}
	return op, nil
}

// Me loads the operator identified by an authenticated request's claims.
func (u *OperatorAuthUsecase) Me(ctx context.Context, operatorID uuid.UUID) (*entities.Operator, error) {
	op, err := u.operators.GetByID(ctx, operatorID)
	if err != nil {
		if err == domainerrors.ErrNotFound {
			return nil, domainerrors.NotFound("operator not found")
		}
		return nil, domainerrors.System(err)
	}
	return op, nil
}
