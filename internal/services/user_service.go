package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "esarbank/internal/errors"
	"esarbank/internal/ids"
	"esarbank/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// Signup registers a user and proposes the identifiers of their savings
// account. The account itself is created later by ConfirmSavingsAccount.
func (s *userService) Signup(ctx context.Context, input SignupInput) (*models.User, *models.AccountDetails, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       email,
		Password:    string(hashedPassword),
		Address1:    input.Address1,
		City:        input.City,
		State:       input.State,
		PostalCode:  input.PostalCode,
		DateOfBirth: input.DateOfBirth,
		Aadhar:      input.Aadhar,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, apperrors.ErrDuplicateEmail
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accountNumber, err := ids.Unique(ids.DefaultAttempts, ids.AccountNumber, func(candidate string) (bool, error) {
		return exists(db, &models.Account{}, "account_number = ?", candidate)
	})
	if err != nil {
		return nil, nil, idError(err)
	}

	details := &models.AccountDetails{
		IFSC:          ids.IFSC(user.City),
		AccountNumber: accountNumber,
		CustomerID:    ids.CustomerID(),
	}
	return user, details, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !ids.IsValid(id) {
		return nil, apperrors.ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords produce the same error.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}
