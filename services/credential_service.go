package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/mobirepair/mobirepair-api/models"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MaxLoginAttempts = 5
	LockDuration     = 30 * time.Minute
)

// bcryptCost is lowered by tests
var bcryptCost = 12

// RegisterInput is the payload for creating a customer account
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone10"`
	Password string `json:"password" validate:"required,min=6"`
}

// CredentialService owns account storage, password verification and lockout
type CredentialService struct {
	db  *gorm.DB
	now func() time.Time
}

var credentialServiceInstance *CredentialService

// InitCredentialService initializes the global credential service
func InitCredentialService(db *gorm.DB) *CredentialService {
	credentialServiceInstance = NewCredentialService(db)
	return credentialServiceInstance
}

// GetCredentialService returns the global credential service
func GetCredentialService() *CredentialService {
	return credentialServiceInstance
}

// SetCredentialService replaces the global credential service (primarily for testing)
func SetCredentialService(svc *CredentialService) {
	credentialServiceInstance = svc
}

// NewCredentialService creates a credential service over db
func NewCredentialService(db *gorm.DB) *CredentialService {
	return &CredentialService{db: db, now: time.Now}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// passwordHasLetterAndDigit checks the password strength rule
func passwordHasLetterAndDigit(password string) bool {
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// Register creates a customer account
func (s *CredentialService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if !passwordHasLetterAndDigit(in.Password) {
		return nil, utils.NewValidationError("Invalid request data", utils.FieldError{
			Field:   "password",
			Message: "Password must contain at least one letter and one number",
		})
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to check existing account", err)
	}
	if count > 0 {
		return nil, utils.NewConflictError("USER_EXISTS", "User already exists with this email")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to hash password", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        utils.NormalizePhone(in.Phone),
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to create user", err)
	}
	return &user, nil
}

// Authenticate verifies credentials. Five consecutive failures lock the
// account for LockDuration; a successful login clears the counter.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	invalid := utils.NewAuthError("INVALID_CREDENTIALS", "Invalid credentials")
	db := s.db.WithContext(ctx)
	now := s.now()

	var user models.User
	err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load user", err)
	}

	if !user.IsActive {
		return nil, utils.NewAuthError("ACCOUNT_DEACTIVATED", "Account is deactivated")
	}
	if user.IsLocked(now) {
		return nil, utils.NewAuthError("ACCOUNT_LOCKED", "Account is temporarily locked due to too many failed login attempts")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if err := s.recordFailedLogin(db, &user, now); err != nil {
			return nil, err
		}
		return nil, invalid
	}

	if err := db.Model(&user).Updates(map[string]interface{}{
		"login_attempts": 0,
		"lock_until":     nil,
		"last_login":     now,
	}).Error; err != nil {
		return nil, utils.NewUnexpectedError("Failed to record login", err)
	}
	return &user, nil
}

// recordFailedLogin counts a failure with atomic updates so concurrent attempts
// are never lost, and locks the account once MaxLoginAttempts is reached.
func (s *CredentialService) recordFailedLogin(db *gorm.DB, user *models.User, now time.Time) error {
	counted := false
	if user.LockUntil != nil {
		// previous lock has expired, this failure is the first of a new count
		result := db.Model(&models.User{}).
			Where("id = ? AND lock_until IS NOT NULL", user.ID).
			Updates(map[string]interface{}{"login_attempts": 1, "lock_until": nil})
		if result.Error != nil {
			return utils.NewUnexpectedError("Failed to record login attempt", result.Error)
		}
		counted = result.RowsAffected > 0
	}
	if !counted {
		err := db.Model(&models.User{}).
			Where("id = ?", user.ID).
			UpdateColumn("login_attempts", gorm.Expr("login_attempts + ?", 1)).Error
		if err != nil {
			return utils.NewUnexpectedError("Failed to record login attempt", err)
		}
	}

	result := db.Model(&models.User{}).
		Where("id = ? AND login_attempts >= ? AND lock_until IS NULL", user.ID, MaxLoginAttempts).
		UpdateColumn("lock_until", now.Add(LockDuration))
	if result.Error != nil {
		return utils.NewUnexpectedError("Failed to record login attempt", result.Error)
	}
	if result.RowsAffected > 0 {
		utils.GetLogger().Warn("account locked after failed logins", zap.Uint("user_id", user.ID))
	}
	return nil
}

// GetActiveUser loads an active account by id
func (s *CredentialService) GetActiveUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAuthError("USER_NOT_FOUND", "User not found")
	}
	if err != nil {
		return nil, utils.NewUnexpectedError("Failed to load user", err)
	}
	if !user.IsActive {
		return nil, utils.NewAuthError("ACCOUNT_DEACTIVATED", "Account is deactivated")
	}
	return &user, nil
}

// EnsureAdmin makes sure an admin account exists for email. It creates the
// account when missing and promotes an existing account that is not an admin.
// Calling it again with the same input changes nothing.
func (s *CredentialService) EnsureAdmin(ctx context.Context, name, email, phone, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, utils.NewValidationError("Admin email and password are required")
	}
	db := s.db.WithContext(ctx)
	logger := utils.GetLogger()

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := hashPassword(password)
		if err != nil {
			return nil, utils.NewUnexpectedError("Failed to hash password", err)
		}
		user = models.User{
			Name:         name,
			Email:        email,
			Phone:        utils.NormalizePhone(phone),
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, utils.NewUnexpectedError("Failed to create admin", err)
		}
		logger.Info("admin account created", zap.String("email", email))
		return &user, nil
	case err != nil:
		return nil, utils.NewUnexpectedError("Failed to load admin", err)
	}

	if user.Role != models.RoleAdmin || !user.IsActive {
		if err := db.Model(&user).Updates(map[string]interface{}{"role": models.RoleAdmin, "is_active": true}).Error; err != nil {
			return nil, utils.NewUnexpectedError("Failed to promote admin", err)
		}
		user.Role = models.RoleAdmin
		user.IsActive = true
		logger.Info("existing account promoted to admin", zap.String("email", email))
	}
	return &user, nil
}
