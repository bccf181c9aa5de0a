package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"docassist/internal/model"
	"docassist/internal/pkg/jwtutil"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
)

const minPasswordRunes = 8

// AuthSession is a freshly minted token together with its owner.
type AuthSession struct {
	Token string
	User  *model.User
}

// AuthService registers accounts and mints JWTs. Accounts are optional in
// this system; anonymous requests run as user 0 and never reach it, so every
// caller here holds (or is creating) a real account.
type AuthService struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users UserStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates an account and immediately logs it in. Usernames and
// emails are unique; emails are stored lowercase.
func (s *AuthService) Register(username, email, password string) (*AuthSession, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", ErrInvalidInput)
	}
	if len([]rune(password)) < minPasswordRunes {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordRunes)
	}

	if existing, err := s.users.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameExists
	}
	if existing, err := s.users.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return s.newSession(user)
}

// Login verifies the password and mints a token. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(username, password string) (*AuthSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredential
	}
	return s.newSession(user)
}

// CurrentUser resolves the account behind a token's user id; nil when the
// account no longer exists.
func (s *AuthService) CurrentUser(id uint) (*model.User, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: anonymous user has no account", ErrInvalidInput)
	}
	return s.users.GetByID(id)
}

func (s *AuthService) newSession(user *model.User) (*AuthSession, error) {
	token, err := jwtutil.GenerateToken(s.jwtSecret, s.tokenTTL, user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token failed: %w", err)
	}
	return &AuthSession{Token: token, User: user}, nil
}
