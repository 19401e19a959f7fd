package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinilab/clinilab/internal/platform/auth"
)

const (
	passwordMinLength      = 8
	verificationCodeDigits = 6
)

type Service struct {
	repo   Repository
	mailer Mailer
	jwt    auth.JWTConfig
}

func NewService(repo Repository, mailer Mailer, jwt auth.JWTConfig) *Service {
	return &Service{repo: repo, mailer: mailer, jwt: jwt}
}

// Register creates an unverified account and mails its verification
// code. The account is persisted even when mail delivery fails; the
// caller can re-request the code later.
func (s *Service) Register(ctx context.Context, username, email, password string) (*Account, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := generateCode(verificationCodeDigits)
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	a := &Account{
		ID:               uuid.New(),
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		VerificationCode: code,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.mailer.SendVerificationCode(ctx, email, username, code); err != nil {
		return a, fmt.Errorf("account created but mail failed: %w", err)
	}
	return a, nil
}

// Verify checks the mailed code and unlocks the account for login.
func (s *Service) Verify(ctx context.Context, username, code string) error {
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("account not found")
	}
	if a.Verified {
		return nil
	}
	if code == "" || code != a.VerificationCode {
		return fmt.Errorf("invalid verification code")
	}
	return s.repo.MarkVerified(ctx, username)
}

// Login checks credentials and issues a signed token carrying the
// staff role. Unverified accounts cannot log in.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}
	if !a.Verified {
		return "", fmt.Errorf("account is not verified")
	}
	token, err := auth.IssueToken(s.jwt, a.ID.String(), a.Username, []string{"staff"})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func validatePassword(password string) error {
	if len(password) < passwordMinLength {
		return fmt.Errorf("password must be at least %d characters", passwordMinLength)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("password must contain upper case, lower case and digits")
	}
	return nil
}

func generateCode(digits int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
