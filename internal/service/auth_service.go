package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"lost_and_found/internal/logger"
	"lost_and_found/internal/metrics"
	"lost_and_found/internal/models"
	"lost_and_found/internal/repository"
	"lost_and_found/internal/security"

	"github.com/go-playground/validator/v10"
)

const (
	MsgSignUpSuccess     = "Signup successful! Check your email to verify your account."
	MsgVerified          = "Email verified successfully! You can now log in."
	MsgAlreadyVerified   = "Email already verified"
	MsgLoginSuccess      = "Login successful"
	MsgVerificationSent  = "If an unverified account uses this email, a new verification link has been sent."
	signUpRedirect       = "/login"
	dummyPasswordForHash = "lost-and-found-timing-equalizer"
)

// bcryptMaxTag limits a string to what bcrypt hashes without truncation.
// It counts bytes, unlike the built-in max which counts runes.
const bcryptMaxTag = "bcryptmax"

// validation tag -> message, in the order the checks are reported.
var signUpRules = []struct {
	tag string
	msg string
}{
	{"required", MsgAllFieldsRequired},
	{"eqfield", MsgPasswordsDoNotMatch},
	{"min", MsgPasswordTooShort},
	{bcryptMaxTag, MsgPasswordTooLong},
	{"contains", MsgInvalidEmail},
}

// AuthService handles user auth logic.
type AuthService struct {
	users    repository.UserDirectory
	events   repository.EventRepo
	hasher   PasswordHasher
	tokens   TokenGenerator
	signer   SessionSigner
	notifier VerificationNotifier
	baseURL  string
	validate *validator.Validate
	log      *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users repository.UserDirectory, events repository.EventRepo, deps Deps, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation(bcryptMaxTag, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= security.MaxPasswordBytes
	})
	return &AuthService{
		users:    users,
		events:   events,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		signer:   deps.Signer,
		notifier: deps.Notifier,
		baseURL:  deps.BaseURL,
		validate: v,
		log:      log,
	}
}

// SignUp validates the form, creates an unverified user and queues the
// verification email. Email failures never fail the signup.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	res, err := s.signUp(ctx, in)
	metrics.SignUpsTotal.WithLabelValues(metrics.Outcome(err == nil)).Inc()
	return res, err
}

func (s *AuthService) signUp(ctx context.Context, in SignUpInput) (SignUpResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return SignUpResult{}, signUpValidationError(err)
	}

	// Pre-check for friendly errors; the unique constraints stay authoritative.
	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return SignUpResult{}, newError(KindDuplicateUsername, MsgUsernameTaken)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignUpResult{}, storageError("check username", err)
	}
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return SignUpResult{}, newError(KindDuplicateEmail, MsgEmailRegistered)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignUpResult{}, storageError("check email", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return SignUpResult{}, validationError("password", MsgPasswordTooLong)
	}
	if err != nil {
		return SignUpResult{}, storageError("hash password", err)
	}
	token, err := s.tokens.Generate()
	if err != nil {
		return SignUpResult{}, storageError("generate verification token", err)
	}

	user, err := s.users.Create(ctx, models.User{
		Username:          in.Username,
		Email:             in.Email,
		PasswordHash:      hash,
		Role:              models.RoleUser,
		IsVerified:        false,
		VerificationToken: &token,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return SignUpResult{}, newError(KindDuplicateUsername, MsgUsernameTaken)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return SignUpResult{}, newError(KindDuplicateEmail, MsgEmailRegistered)
	case err != nil:
		return SignUpResult{}, storageError("create user", err)
	}

	s.record(ctx, models.EventSignUp, "user signed up", map[string]any{"user_id": user.ID, "username": user.Username})
	s.notify(ctx, user, token)

	return SignUpResult{
		Message:  MsgSignUpSuccess,
		Redirect: signUpRedirect,
		User:     user.Public(),
	}, nil
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (VerifyResult, error) {
	res, err := s.verifyEmail(ctx, token)
	metrics.VerificationsTotal.WithLabelValues(metrics.Outcome(err == nil)).Inc()
	return res, err
}

func (s *AuthService) verifyEmail(ctx context.Context, token string) (VerifyResult, error) {
	if token == "" {
		return VerifyResult{}, newError(KindInvalidToken, MsgInvalidLink)
	}

	user, err := s.users.FindByVerificationToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return VerifyResult{}, newError(KindInvalidOrExpiredToken, MsgInvalidOrExpiredToken)
	}
	if err != nil {
		return VerifyResult{}, storageError("find user by token", err)
	}

	if user.IsVerified {
		return VerifyResult{Message: MsgAlreadyVerified, Username: user.Username, AlreadyVerified: true}, nil
	}

	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyResult{}, newError(KindInvalidOrExpiredToken, MsgInvalidOrExpiredToken)
		}
		return VerifyResult{}, storageError("mark verified", err)
	}

	s.record(ctx, models.EventVerify, "email verified", map[string]any{"user_id": user.ID, "username": user.Username})
	return VerifyResult{Message: MsgVerified, Username: user.Username}, nil
}

// SignIn checks credentials and issues a session token. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (SignInResult, error) {
	res, err := s.signIn(ctx, username, password)
	metrics.LoginsTotal.WithLabelValues(metrics.Outcome(err == nil)).Inc()
	return res, err
}

func (s *AuthService) signIn(ctx context.Context, username, password string) (SignInResult, error) {
	if err := s.validate.Struct(signInInput{Username: username, Password: password}); err != nil {
		return SignInResult{}, validationError("", MsgCredentialsRequired)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn the same bcrypt work as a real comparison.
		_, _ = s.hasher.Verify(ctx, password, s.timingHash(ctx))
		s.record(ctx, models.EventLoginFailed, "login failed", map[string]any{"username": username})
		return SignInResult{}, newError(KindInvalidCredentials, MsgInvalidCredentials)
	}
	if err != nil {
		return SignInResult{}, storageError("find user", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return SignInResult{}, storageError("verify password", err)
	}
	if !ok {
		s.record(ctx, models.EventLoginFailed, "login failed", map[string]any{"username": username})
		return SignInResult{}, newError(KindInvalidCredentials, MsgInvalidCredentials)
	}

	token, expiresAt, err := s.signer.Issue(user.ID, user.Role)
	if err != nil {
		return SignInResult{}, storageError("issue session token", err)
	}

	s.record(ctx, models.EventLogin, "login succeeded", map[string]any{"user_id": user.ID, "username": user.Username})
	return SignInResult{Token: token, ExpiresAt: expiresAt, User: user.Public()}, nil
}

// ResendVerification re-sends the existing token to an unverified account.
// It reports success whether or not such an account exists.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return validationError("email", MsgEmailRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storageError("find user by email", err)
	}
	if user.IsVerified || user.VerificationToken == nil {
		return nil
	}

	s.notify(ctx, user, *user.VerificationToken)
	return nil
}

// ParseToken checks a session token.
func (s *AuthService) ParseToken(token string) (security.Identity, error) {
	id, err := s.signer.Verify(token)
	if err != nil {
		return security.Identity{}, &Error{Kind: KindUnauthorized, Message: MsgUnauthorized, Err: err}
	}
	return id, nil
}

func (s *AuthService) notify(ctx context.Context, user models.User, token string) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendVerification(ctx, user.Email, user.Username, token, s.baseURL)
	if err == nil {
		return
	}
	nerr := &Error{Kind: KindNotifier, Message: "verification email not queued", Err: err}
	s.log.Warnw("notifier_enqueue_failed", "user_id", user.ID, "err", nerr)
	s.record(ctx, models.EventNotifyFailed, "verification email not queued", map[string]any{"user_id": user.ID, "reason": err.Error()})
}

// record appends an audit event. Failures are logged and otherwise ignored.
func (s *AuthService) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, models.AuthEvent{Type: typ, Description: desc, Metadata: meta}); err != nil {
		s.log.Errorw("audit_append_failed", "type", typ, "err", err)
	}
}

func (s *AuthService) timingHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPasswordForHash)
		if err != nil {
			s.log.Errorw("timing_hash_failed", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func signUpValidationError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Message: MsgAllFieldsRequired, Err: err}
	}
	for _, rule := range signUpRules {
		for _, fe := range verrs {
			if fe.Tag() == rule.tag {
				return validationError(fe.Field(), rule.msg)
			}
		}
	}
	return &Error{Kind: KindValidation, Message: MsgAllFieldsRequired, Err: fmt.Errorf("unmapped validation: %w", err)}
}
