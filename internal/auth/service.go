package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/damilareakin/artmarket-backend/pkg/auth"
	"github.com/damilareakin/artmarket-backend/pkg/auth/session"
	"github.com/damilareakin/artmarket-backend/pkg/config"
	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
	"github.com/damilareakin/artmarket-backend/pkg/mailer"
	"github.com/damilareakin/artmarket-backend/pkg/security"
)

const (
	otpLength = 6
	otpTTL    = 15 * time.Minute
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository is the persistence surface for authentication flows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, updates map[string]any) error
}

// SessionStore manages refresh sessions keyed by the access token jti.
type SessionStore interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	FirstName   string  `json:"firstName" validate:"required"`
	LastName    string  `json:"lastName" validate:"required"`
	Phone       *string `json:"phone"`
	DisplayName string  `json:"displayName" validate:"required"`
	IsArtist    bool    `json:"isArtist"`
}

// TokenPair is issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service defines authentication operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	VerifyOTP(ctx context.Context, email, code string) error
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	repo     Repository
	tx       txRunner
	sessions SessionStore
	email    mailer.EmailSender
	sms      mailer.SMSSender
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the auth service. The SMS sender may be nil when phone
// delivery is not configured.
func NewService(repo Repository, tx txRunner, sessions SessionStore, email mailer.EmailSender, sms mailer.SMSSender, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if email == nil {
		return nil, fmt.Errorf("email sender required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		sessions: sessions,
		email:    email,
		sms:      sms,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	passwordHash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	code, err := security.GenerateOTP(otpLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	otpHash := hashOTP(code)
	otpExpires := s.now().Add(otpTTL)

	role := enums.UserRoleUser
	if input.IsArtist {
		role = enums.UserRoleArtist
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         role,
		OTPHash:      &otpHash,
		OTPExpiresAt: &otpExpires,
		IsActive:     true,
		Profile: &models.Profile{
			ID:          uuid.New(),
			DisplayName: input.DisplayName,
			IsArtist:    input.IsArtist,
		},
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateUser(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverOTP(ctx, user, code)
	return user, nil
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}
	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no verification code outstanding")
	}
	if s.now().After(*user.OTPExpiresAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification code expired")
	}
	if subtle.ConstantTimeCompare([]byte(hashOTP(code)), []byte(*user.OTPHash)) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "verification code incorrect")
	}

	updates := map[string]any{
		"email_verified": true,
		"otp_hash":       nil,
		"otp_expires_at": nil,
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark email verified")
	}
	return nil
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "email already verified")
	}

	code, err := security.GenerateOTP(otpLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	otpHash := hashOTP(code)
	otpExpires := s.now().Add(otpTTL)
	updates := map[string]any{
		"otp_hash":       otpHash,
		"otp_expires_at": otpExpires,
	}
	if err := s.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	s.deliverOTP(ctx, user, code)
	return nil
}

func (s *service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "email not verified")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	lastLogin := s.now()
	if err := s.repo.UpdateUser(ctx, user.ID, map[string]any{"last_login_at": lastLogin}); err != nil && s.logg != nil {
		s.logg.Error(ctx, "record last login", err)
	}
	return pair, nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "refresh session")
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}

	access, err := s.mintAccess(user, newAccessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := s.mintAccess(user, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) mintAccess(user *models.User, accessID string) (string, error) {
	payload := pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	}
	if user.Profile != nil {
		profileID := user.Profile.ID
		payload.ProfileID = &profileID
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}

func (s *service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) deliverOTP(ctx context.Context, user *models.User, code string) {
	msg := mailer.EmailMessage{
		To:        user.Email,
		Subject:   "Your verification code",
		PlainBody: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes())),
	}
	if err := s.email.SendEmail(ctx, msg); err != nil && s.logg != nil {
		s.logg.Error(ctx, "send otp email", err)
	}
	if s.sms != nil && user.Phone != nil && *user.Phone != "" {
		body := fmt.Sprintf("Your verification code is %s", code)
		if err := s.sms.SendSMS(ctx, *user.Phone, body); err != nil && s.logg != nil {
			s.logg.Error(ctx, "send otp sms", err)
		}
	}
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
