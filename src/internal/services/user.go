package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/locale"
)

// CreateUserInput describes a new login. Without an AccountID a fresh
// account is created for the user.
type CreateUserInput struct {
	AccountID *uuid.UUID `json:"account_id"`
	Email     string     `json:"email" validate:"required,email,max=255"`
	Password  string     `json:"password" validate:"required,min=8,max=72"`
	FirstName string     `json:"first_name" validate:"max=100"`
	LastName  string     `json:"last_name" validate:"max=100"`
	Locale    string     `json:"locale" validate:"max=10"`
}

// UserService handles user business logic
type UserService struct {
	db        *gorm.DB
	cfg       *viper.Viper
	totp      *auth.TOTPService
	validator *apperrors.Validator
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, cfg *viper.Viper, totpService *auth.TOTPService) *UserService {
	if totpService == nil {
		totpService = auth.NewTOTPService(cfg.GetString("app.name"))
	}
	return &UserService{
		db:        db,
		cfg:       cfg,
		totp:      totpService,
		validator: apperrors.NewValidator(),
	}
}

// CreateUser creates a new user with validation
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := s.validator.Struct(ctx, input); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to check email", err)
	}
	if count > 0 {
		return nil, errors.New("email already exists")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Locale:       input.Locale,
	}
	if user.Locale == "" {
		user.Locale = s.cfg.GetString("app.locale")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.AccountID != nil {
			var account models.Account
			if err := tx.First(&account, "id = ?", *input.AccountID).Error; err != nil {
				return apperrors.NotFoundError("account")
			}
			user.AccountID = account.ID
		} else {
			account := &models.Account{}
			if err := tx.Create(account).Error; err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}
			user.AccountID = account.ID
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// FindByID retrieves a user by ID
func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by email
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Authenticate checks the password and, when enrolled, the TOTP code
func (s *UserService) Authenticate(ctx context.Context, email, password, otpCode string) (*models.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}

	if user.TwoFactorEnabled {
		if otpCode == "" {
			return nil, auth.ErrTwoFactorRequired
		}
		if !s.totp.ValidateTOTP(user.TwoFactorSecret, otpCode) {
			return nil, auth.ErrInvalidTwoFactor
		}
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to record login", err)
	}

	return user, nil
}

// EnableTwoFactor generates a TOTP secret for the user and turns 2FA on
func (s *UserService) EnableTwoFactor(ctx context.Context, userID uuid.UUID) (*auth.TOTPSetup, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	setup, err := s.totp.GenerateTOTP(user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"two_factor_enabled": true,
		"two_factor_secret":  setup.Secret,
	}).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to enable two-factor", err)
	}

	return setup, nil
}

// SetLocale stores the user's preferred language. Unsupported values fall
// back to the closest supported one.
func (s *UserService) SetLocale(ctx context.Context, userID uuid.UUID, value string) (*models.User, error) {
	user, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tag := locale.Parse(value, locale.Parse(s.cfg.GetString("app.locale"), language.English))

	if err := s.db.WithContext(ctx).Model(user).Update("locale", tag.String()).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to update locale", err)
	}
	user.Locale = tag.String()

	return user, nil
}
