package service

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
	ErrResetTokenUsed    = errors.New("reset token has already been used")
)

const (
	// ResetTokenExpiry is the duration for which a reset token is valid
	ResetTokenExpiry = 1 * time.Hour
	// ResetTokenLength is the byte length of the reset token
	ResetTokenLength = 32
)

// ResetLinkSender delivers a reset link to the account owner.
type ResetLinkSender interface {
	SendResetLink(user *model.User, link string) error
}

// LogResetSender stands in until mail delivery exists. The link carries a
// live token, so it is only written at debug level.
type LogResetSender struct{}

func (LogResetSender) SendResetLink(user *model.User, link string) error {
	logger.Info("Password reset link issued", map[string]interface{}{
		"user_id": user.ID,
	})
	logger.Debug("Password reset link", map[string]interface{}{
		"user_id": user.ID,
		"link":    link,
	})
	return nil
}

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	resetRepo repository.PasswordResetRepository
	userRepo  repository.UserRepository
	sender    ResetLinkSender
	clientURL string
}

func NewPasswordResetService(
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	sender ResetLinkSender,
	clientURL string,
) PasswordResetService {
	if sender == nil {
		sender = LogResetSender{}
	}
	return &passwordResetService{
		resetRepo: resetRepo,
		userRepo:  userRepo,
		sender:    sender,
		clientURL: clientURL,
	}
}

// RequestReset issues a single-use token. Unknown emails succeed silently so
// the endpoint cannot be used to enumerate accounts.
func (s *passwordResetService) RequestReset(email string) error {
	email = normalizeEmail(email)
	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for non-existent email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}

	token, err := util.RandomToken(ResetTokenLength)
	if err != nil {
		logger.Error("Failed to generate reset token", err)
		return err
	}

	reset := &model.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(ResetTokenExpiry),
	}
	if err := s.resetRepo.Create(reset); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, url.QueryEscape(token))
	if err := s.sender.SendResetLink(user, link); err != nil {
		logger.Error("Failed to send reset link", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	if err := util.ValidatePasswordStrength(newPassword); err != nil {
		return newValidationError("new_password", err.Error())
	}

	reset, err := s.resetRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Invalid reset token provided")
			return ErrInvalidResetToken
		}
		return err
	}

	if time.Now().After(reset.ExpiresAt) {
		logger.Warn("Reset token has expired", map[string]interface{}{
			"user_id":    reset.UserID,
			"expires_at": reset.ExpiresAt,
		})
		return ErrResetTokenExpired
	}
	if reset.Used {
		return ErrResetTokenUsed
	}

	user, err := s.userRepo.FindByID(reset.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hashedPassword, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// claim the token first; of two concurrent resets only one proceeds
	claimed, err := s.resetRepo.MarkAsUsed(reset.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrResetTokenUsed
	}

	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to update user password", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	logger.Info("Password reset successful", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}
