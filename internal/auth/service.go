package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paper-trader-go/internal/models"
	"paper-trader-go/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

// Service registers users and checks their credentials.
type Service struct {
	store           repository.Store
	startingBalance decimal.Decimal
	bcryptCost      int
	logger          *zap.Logger
}

func NewService(store repository.Store, startingBalance decimal.Decimal, bcryptCost int, logger *zap.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		store:           store,
		startingBalance: startingBalance,
		bcryptCost:      bcryptCost,
		logger:          logger.Named("auth"),
	}
}

// Register creates the user and their cash account together.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Username = strings.TrimSpace(req.Username)
	if req.FirstName == "" || req.LastName == "" || req.Username == "" || req.Password == "" || req.Confirmation == "" {
		return nil, ErrMissingFields
	}
	if req.Password != req.Confirmation {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrUsernameTaken
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		account := &models.Account{UserID: user.ID, Balance: s.startingBalance}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login returns the user when the password matches.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("Password mismatch", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the user with their current balance.
func (s *Service) Profile(ctx context.Context, userID uint) (*models.User, *models.Account, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load account: %w", err)
	}
	return user, account, nil
}
