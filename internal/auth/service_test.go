package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/damilareakin/artmarket-backend/pkg/auth"
	"github.com/damilareakin/artmarket-backend/pkg/config"
	"github.com/damilareakin/artmarket-backend/pkg/db/models"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/mailer"
	"github.com/damilareakin/artmarket-backend/pkg/security"
)

type stubAuthRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	lastUpdates  map[string]any
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (s *stubAuthRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAuthRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
	return user, nil
}

func (s *stubAuthRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubAuthRepo) FindUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, ok := s.usersByID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubAuthRepo) UpdateUser(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	user, ok := s.usersByID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if verified, ok := updates["email_verified"].(bool); ok {
		user.EmailVerified = verified
	}
	if hash, ok := updates["otp_hash"].(string); ok {
		user.OTPHash = &hash
	}
	if expires, ok := updates["otp_expires_at"].(time.Time); ok {
		user.OTPExpiresAt = &expires
	}
	return nil
}

type stubSessions struct {
	generated []string
	revoked   []string
	rotateErr error
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	if provided != "refresh-"+oldAccessID {
		return "", "", gorm.ErrRecordNotFound
	}
	newID := uuid.NewString()
	return newID, "refresh-" + newID, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubEmailSender struct {
	messages []mailer.EmailMessage
}

func (s *stubEmailSender) SendEmail(ctx context.Context, msg mailer.EmailMessage) error {
	s.messages = append(s.messages, msg)
	return nil
}

type stubSMSSender struct {
	sent []string
}

func (s *stubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.sent = append(s.sent, to)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "artmarket-test",
		ExpirationMinutes: 15,
	}
}

type authFixture struct {
	repo     *stubAuthRepo
	sessions *stubSessions
	email    *stubEmailSender
	sms      *stubSMSSender
	svc      Service
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		repo:     newStubAuthRepo(),
		sessions: &stubSessions{},
		email:    &stubEmailSender{},
		sms:      &stubSMSSender{},
	}
	svc, err := NewService(f.repo, stubTxRunner{}, f.sessions, f.email, f.sms, testJWTConfig(), config.PasswordConfig{}, nil)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	f.svc = svc
	return f
}

func (f *authFixture) seedVerifiedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Ada",
		LastName:      "Obi",
		Role:          enums.UserRoleUser,
		EmailVerified: true,
		IsActive:      true,
		Profile:       &models.Profile{ID: uuid.New(), DisplayName: "Ada"},
	}
	f.repo.usersByEmail[email] = user
	f.repo.usersByID[user.ID] = user
	return user
}

func errCode(t *testing.T, err error) pkgerrors.Code {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return typed.Code()
}

func TestRegisterCreatesUserAndSendsOTP(t *testing.T) {
	f := newAuthFixture(t)
	phone := "+2348012345678"

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email:       "Ada@Example.com",
		Password:    "correct-horse",
		FirstName:   "Ada",
		LastName:    "Obi",
		Phone:       &phone,
		DisplayName: "Ada O",
		IsArtist:    true,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}
	if user.Role != enums.UserRoleArtist {
		t.Fatalf("expected artist role, got %s", user.Role)
	}
	if user.Profile == nil || !user.Profile.IsArtist {
		t.Fatalf("expected artist profile, got %+v", user.Profile)
	}
	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		t.Fatal("expected otp challenge stored")
	}
	if len(f.email.messages) != 1 || f.email.messages[0].To != "ada@example.com" {
		t.Fatalf("expected otp email, got %+v", f.email.messages)
	}
	if len(f.sms.sent) != 1 || f.sms.sent[0] != phone {
		t.Fatalf("expected otp sms, got %v", f.sms.sent)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerifiedUser(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email:       "ada@example.com",
		Password:    "another-pass",
		FirstName:   "Ada",
		LastName:    "Obi",
		DisplayName: "Ada O",
	})
	if code := errCode(t, err); code != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %s", code)
	}
}

func TestVerifyOTPMarksEmailVerified(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email:       "ada@example.com",
		Password:    "correct-horse",
		FirstName:   "Ada",
		LastName:    "Obi",
		DisplayName: "Ada O",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	body := f.email.messages[0].PlainBody
	code := extractOTP(t, body)

	if err := f.svc.VerifyOTP(context.Background(), user.Email, code); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if !f.repo.usersByID[user.ID].EmailVerified {
		t.Fatal("expected email verified")
	}
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email:       "ada@example.com",
		Password:    "correct-horse",
		FirstName:   "Ada",
		LastName:    "Obi",
		DisplayName: "Ada O",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = f.svc.VerifyOTP(context.Background(), user.Email, "000000x")
	if code := errCode(t, err); code != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %s", code)
	}
	if f.repo.usersByID[user.ID].EmailVerified {
		t.Fatal("wrong code must not verify email")
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedVerifiedUser(t, "ada@example.com", "correct-horse")

	pair, err := f.svc.Login(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", pair)
	}
	if !strings.HasPrefix(pair.RefreshToken, "refresh-") {
		t.Fatalf("refresh token must come from the session store, got %s", pair.RefreshToken)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user mismatch: %s", claims.UserID)
	}
	if claims.ProfileID == nil || *claims.ProfileID != user.Profile.ID {
		t.Fatalf("claims profile mismatch: %v", claims.ProfileID)
	}
	if len(f.sessions.generated) != 1 || f.sessions.generated[0] != claims.ID {
		t.Fatalf("session must be keyed by the token jti, got %v", f.sessions.generated)
	}
}

func TestLoginRejectsBadPasswordAndUnverifiedEmail(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedVerifiedUser(t, "ada@example.com", "correct-horse")

	_, err := f.svc.Login(context.Background(), "ada@example.com", "wrong")
	if code := errCode(t, err); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %s", code)
	}

	user.EmailVerified = false
	_, err = f.svc.Login(context.Background(), "ada@example.com", "correct-horse")
	if code := errCode(t, err); code != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for unverified email, got %s", code)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerifiedUser(t, "ada@example.com", "correct-horse")

	pair, err := f.svc.Login(context.Background(), "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := f.svc.Refresh(context.Background(), pair.AccessToken, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == pair.AccessToken {
		t.Fatal("expected new access token")
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected new refresh token")
	}

	_, err = f.svc.Refresh(context.Background(), pair.AccessToken, "stolen-token")
	if code := errCode(t, err); code != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for bad refresh token, got %s", code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(f.sessions.revoked) != 1 || f.sessions.revoked[0] != "access-1" {
		t.Fatalf("expected revoked session, got %v", f.sessions.revoked)
	}
}

func extractOTP(t *testing.T, body string) string {
	t.Helper()
	fields := strings.Fields(body)
	for _, field := range fields {
		trimmed := strings.TrimSuffix(field, ".")
		if len(trimmed) == otpLength && strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
			return trimmed
		}
	}
	t.Fatalf("no otp found in %q", body)
	return ""
}
