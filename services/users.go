package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"yatube/forms"
	"yatube/models"
)

const MsgUsernameTaken = "A user with that username already exists."

type UserService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewUserService(db *gorm.DB, log *slog.Logger) *UserService {
	return &UserService{db: db, log: log}
}

func (s *UserService) Signup(ctx context.Context, form forms.SignupForm) (*models.User, error) {
	clean, errs := form.Validate()
	if !errs.Valid() {
		return nil, invalid(errs)
	}
	return s.create(ctx, clean, false)
}

// CreateSuperuser makes a staff account, the only kind allowed into /admin/.
func (s *UserService) CreateSuperuser(ctx context.Context, form forms.SignupForm) (*models.User, error) {
	clean, errs := form.Validate()
	if !errs.Valid() {
		return nil, invalid(errs)
	}
	return s.create(ctx, clean, true)
}

func (s *UserService) create(ctx context.Context, clean forms.SignupForm, staff bool) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(clean.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     clean.Username,
		PasswordHash: string(hash),
		FirstName:    clean.FirstName,
		LastName:     clean.LastName,
		Email:        clean.Email,
		IsStaff:      staff,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("username", MsgUsernameTaken)
		}
		return nil, fmt.Errorf("create user %s: %w", clean.Username, err)
	}
	s.log.Info("user created", slog.String("username", user.Username), slog.Bool("staff", staff))
	return &user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords give
// the same form error.
func (s *UserService) Authenticate(ctx context.Context, form forms.LoginForm) (*models.User, error) {
	clean, errs := form.Validate()
	if !errs.Valid() {
		return nil, invalid(errs)
	}
	user, err := userByUsername(s.db.WithContext(ctx), clean.Username)
	if errors.Is(err, ErrNotFound) {
		return nil, fieldError(forms.NonFieldErrors, forms.MsgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(clean.Password)); err != nil {
		return nil, fieldError(forms.NonFieldErrors, forms.MsgBadCredentials)
	}
	return user, nil
}

func (s *UserService) ByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}
