package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/taskmanager/internal/constants"
	"github.com/yukikurage/taskmanager/internal/dto"
	apierrors "github.com/yukikurage/taskmanager/internal/errors"
	"github.com/yukikurage/taskmanager/internal/models"
	"github.com/yukikurage/taskmanager/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = apierrors.New(apierrors.KindUniqueViolation, "email is already registered")
	ErrUsernameTaken      = apierrors.New(apierrors.KindUniqueViolation, "username already exists")
	ErrAccountTaken       = apierrors.New(apierrors.KindUniqueViolation, "email or username already exists")
	ErrUserNotFound       = apierrors.New(apierrors.KindNotFound, "user not found")
	ErrInvalidCredentials = apierrors.New(apierrors.KindWrongCredential, "invalid username or password")
	ErrPasswordTooLong    = apierrors.New(apierrors.KindValidation, "password is too long")
	ErrInvalidUserID      = apierrors.New(apierrors.KindTypeMismatch, "user id must be a positive integer")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	log      *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, log *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		log:      log,
	}
}

// Register hashes the password and stores a new user.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	if taken, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, s.storageError(ctx, "check email", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
		return nil, s.storageError(ctx, "check username", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, s.storageError(ctx, "hash password", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAccountTaken
		}
		return nil, s.storageError(ctx, "create user", err)
	}

	return user, nil
}

// CheckUsernameAvailable reports whether no user has exactly this username.
func (s *AuthService) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return false, s.storageError(ctx, "check username", err)
	}
	return !taken, nil
}

// CheckEmailAvailable reports whether no user has exactly this email.
func (s *AuthService) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, s.storageError(ctx, "check email", err)
	}
	return !taken, nil
}

// ValidateRegistrationForm runs every registration rule and collects one
// message per violation.
func (s *AuthService) ValidateRegistrationForm(ctx context.Context, form dto.RegistrationForm) (bool, []string) {
	var messages []string

	email := form.Email
	username := form.Username

	if form.Password != form.ConfirmPassword {
		messages = append(messages, "Passwords do not match.")
	}
	if len([]rune(username)) < constants.MinUsernameLength {
		messages = append(messages, fmt.Sprintf("Username must be at least %d characters long.", constants.MinUsernameLength))
	}
	if len([]rune(form.Password)) < constants.MinPasswordLength {
		messages = append(messages, fmt.Sprintf("Password must be at least %d characters long.", constants.MinPasswordLength))
	}

	if username != "" {
		available, err := s.CheckUsernameAvailable(ctx, username)
		switch {
		case err != nil:
			messages = append(messages, "Could not verify the username, please try again.")
		case !available:
			messages = append(messages, "Username is already taken.")
		}
	}

	if email == "" {
		messages = append(messages, "Email is required.")
	} else {
		available, err := s.CheckEmailAvailable(ctx, email)
		switch {
		case err != nil:
			messages = append(messages, "Could not verify the email, please try again.")
		case !available:
			messages = append(messages, "Email is already registered.")
		}
	}

	return len(messages) == 0, messages
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.storageError(ctx, "find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	if id == 0 {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.storageError(ctx, "find user", err)
	}

	return user, nil
}

func (s *AuthService) storageError(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "user store failure", "op", op, "error", err)
	return apierrors.Newf(apierrors.KindStorage, "failed to %s", op)
}
