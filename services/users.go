package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"photoshare/db"
	"photoshare/logger"
	"photoshare/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

type UserService struct {
	orm *gorm.DB
}

func NewUserService(orm *gorm.DB) *UserService {
	return &UserService{orm: orm}
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expected) == 1
}

func newToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

func (s *UserService) Register(ctx context.Context, nickname, email, password string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	email = strings.ToLower(strings.TrimSpace(email))
	if nickname == "" || email == "" || len(password) < 8 {
		return nil, ErrInvalidInput("nickname, email and a password of at least 8 characters are required")
	}

	var alreadyExists int64
	err := db.GetReadOnlyDB(ctx, s.orm).Model(&models.User{}).
		Where("nickname = ? OR email = ?", nickname, email).
		Count(&alreadyExists).Error
	if err != nil {
		return nil, errUnknown("failed to check user", err)
	}
	if alreadyExists > 0 {
		return nil, ErrInvalidInput("user already exists")
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, errUnknown("failed to hash password", err)
	}
	user := &models.User{
		ID:       uuid.NewString(),
		Nickname: nickname,
		Email:    email,
		Password: passwordHash,
	}
	if err := db.GetWriteDB(ctx, s.orm).Create(user).Error; err != nil {
		return nil, errUnknown("failed to create user", err)
	}
	logger.Log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login проверяет пароль и выдает новый токен, старые токены пользователя удаляются
func (s *UserService) Login(ctx context.Context, nickname, password string) (string, *models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx, s.orm).Where("nickname = ?", nickname).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrUnauthorized("invalid credentials")
	}
	if err != nil {
		return "", nil, errUnknown("failed to load user", err)
	}
	if !verifyPassword(user.Password, password) {
		return "", nil, ErrUnauthorized("invalid credentials")
	}

	token, err := newToken()
	if err != nil {
		return "", nil, errUnknown("failed to generate token", err)
	}
	err = db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.UserTokens{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserTokens{UserID: user.ID, Token: token, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return "", nil, errUnknown("failed to store token", err)
	}
	return token, &user, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized("token is empty")
	}
	err := db.GetWriteDB(ctx, s.orm).Where("token = ?", token).Delete(&models.UserTokens{}).Error
	if err != nil {
		return errUnknown("failed to logout", err)
	}
	return nil
}

// UserIDByToken возвращает id владельца токена
func (s *UserService) UserIDByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized("token is empty")
	}
	var stored models.UserTokens
	err := db.GetReadOnlyDB(ctx, s.orm).Where("token = ?", token).Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUnauthorized("invalid token")
	}
	if err != nil {
		return "", errUnknown("failed to check token", err)
	}
	return stored.UserID, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx, s.orm).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound("user not found")
	}
	if err != nil {
		return nil, errUnknown("failed to load user", err)
	}
	return &user, nil
}

// setPassword меняет пароль и завершает все сессии
func (s *UserService) setPassword(ctx context.Context, tx *gorm.DB, userID, password string) error {
	passwordHash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := tx.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", passwordHash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserTokens{}).Error; err != nil {
		return fmt.Errorf("failed to drop sessions: %w", err)
	}
	return nil
}
