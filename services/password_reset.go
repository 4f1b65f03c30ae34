package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"photoshare/db"
	"photoshare/logger"
	"photoshare/models"

	"gorm.io/gorm"
)

// PasswordResetMessage - одинаковый ответ для существующих и несуществующих адресов
const PasswordResetMessage = "If an account with this email exists, a password reset link has been sent."

const MAIL_PASSWORD_RESET_KEY = "mail.password_reset"

type PasswordResetService struct {
	orm       *gorm.DB
	users     *UserService
	limiter   *ActionLimiter
	publisher EventPublisher

	minDuration time.Duration
	maxJitter   time.Duration
	tokenTTL    time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewPasswordResetService(orm *gorm.DB, users *UserService, limiter *ActionLimiter, publisher EventPublisher, minDuration, maxJitter, tokenTTL time.Duration) *PasswordResetService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &PasswordResetService{
		orm:         orm,
		users:       users,
		limiter:     limiter,
		publisher:   publisher,
		minDuration: minDuration,
		maxJitter:   maxJitter,
		tokenTTL:    tokenTTL,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Request отправляет письмо со ссылкой сброса. Время ответа выравнивается до minDuration
// плюс случайная задержка, тело ответа не зависит от существования адреса.
func (s *PasswordResetService) Request(ctx context.Context, email string) (string, error) {
	start := s.now()
	defer s.pad(ctx, start)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidInput("valid email is required")
	}
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, ActionPasswordReset, email); err != nil {
			return "", err
		}
	}

	if err := s.issueToken(ctx, email); err != nil {
		// Ошибку не показываем клиенту, иначе по ответу можно узнать о существовании адреса
		logger.Log.WithError(err).Error("failed to issue password reset token")
	}
	return PasswordResetMessage, nil
}

func (s *PasswordResetService) issueToken(ctx context.Context, email string) error {
	var user models.User
	err := db.GetReadOnlyDB(ctx, s.orm).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	record := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := db.GetWriteDB(ctx, s.orm).Create(record).Error; err != nil {
		return err
	}
	return s.publisher.Publish(ctx, MAIL_PASSWORD_RESET_KEY, Event{
		Type:      EventPasswordReset,
		UserID:    user.ID,
		Payload:   map[string]string{"email": user.Email, "token": token},
		CreatedAt: s.now(),
	})
}

func (s *PasswordResetService) pad(ctx context.Context, start time.Time) {
	wait := s.minDuration - s.now().Sub(start)
	if s.maxJitter > 0 {
		wait += rand.N(s.maxJitter)
	}
	if wait > 0 {
		s.sleep(ctx, wait)
	}
}

// Confirm меняет пароль по токену из письма. Токен одноразовый.
func (s *PasswordResetService) Confirm(ctx context.Context, token, newPassword string) error {
	if token == "" || len(newPassword) < 8 {
		return ErrInvalidInput("token and a password of at least 8 characters are required")
	}
	err := db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		var record models.PasswordResetToken
		err := tx.Where("token_hash = ? AND expires_at > ?", hashResetToken(token), s.now()).Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidInput("invalid or expired token")
		}
		if err != nil {
			return err
		}
		if err := s.users.setPassword(ctx, tx, record.UserID, newPassword); err != nil {
			return err
		}
		return tx.Where("user_id = ?", record.UserID).Delete(&models.PasswordResetToken{}).Error
	})
	if err != nil {
		if CodeOf(err) != CodeUnknown {
			return err
		}
		return errUnknown("failed to reset password", err)
	}
	return nil
}
