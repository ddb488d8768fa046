package services

import (
	"context"
	"errors"
	"strings"

	"askhub/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAuthService(db *gorm.DB, logger *zap.Logger) *AuthService {
	return &AuthService{db: db, logger: logger.Named("auth")}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Register creates a user profile with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fields := map[string]string{}
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "email"
	}
	if len(in.Password) < 8 {
		fields["password"] = "min=8"
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		fields["role"] = "oneof=user admin"
	}
	if len(fields) > 0 {
		return nil, InvalidInput("invalid user", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}
	u := models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, storeErr(err, "user", map[string]string{"email": email})
	}
	s.logger.Info("user registered", zap.Stringer("user_id", u.ID), zap.String("role", role))
	return &u, nil
}

// Login checks the credentials. Unknown email and wrong password yield the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, storeErr(err, "user", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, Unauthenticated("invalid email or password")
	}
	return &u, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, storeErr(err, "user", map[string]string{"id": id.String()})
	}
	return &u, nil
}
