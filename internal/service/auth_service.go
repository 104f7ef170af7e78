package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	// Authenticate resolves a bearer token to its user, rejecting tokens of
	// superseded sessions.
	Authenticate(tokenString string) (*model.User, error)
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"` // Flat privileges array for easy checking
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log,
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, apperror.Unauthorized("%s", ErrInvalidCredentials)
	}

	if !user.CheckPassword(password) {
		return nil, apperror.Unauthorized("%s", ErrInvalidCredentials)
	}

	if !user.IsActive {
		return nil, apperror.Forbidden("%s", ErrUserInactive)
	}

	roleCode := ""
	if user.Role != nil {
		roleCode = user.Role.Code
	}

	// Single session: a new version invalidates tokens issued before
	newTokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(user.ID, newTokenVersion); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	privileges := user.EffectivePrivilegeCodes()
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, roleCode, privileges, newTokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: privileges,
	}, nil
}

func (s *authService) Authenticate(tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	switch {
	case errors.Is(err, jwt.ErrMissingToken):
		return nil, apperror.Unauthorized("unauthorized, token not found")
	case errors.Is(err, jwt.ErrExpiredToken):
		return nil, apperror.Unauthorized("token expired, please log in again")
	case err != nil:
		return nil, apperror.Unauthorized("invalid token")
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized("user not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return nil, apperror.Unauthorized("session expired (logged in on another device)")
	}

	if !user.IsActive {
		return nil, apperror.Forbidden("%s", ErrUserInactive)
	}
	return user, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	user, err := s.Authenticate(tokenString)
	if err != nil {
		return nil, err
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.EffectivePrivilegeCodes(),
	}, nil
}
