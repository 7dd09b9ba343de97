package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"notekeeper/internal/lib/jwt"
	sl "notekeeper/internal/lib/logger"
	"notekeeper/internal/models"
	"notekeeper/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const bearerPrefix = "Bearer "

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("token not valid")
	ErrAuthMissing        = errors.New("authentication not found")
)

type UserStore interface {
	SaveUser(ctx context.Context, user models.User) (int64, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
}

type TokenLedger interface {
	SaveTokens(ctx context.Context, tokens ...models.Token) error
	TokenByValue(ctx context.Context, value string) (models.Token, error)
	ValidTokensByUser(ctx context.Context, userID int64) ([]models.Token, error)
	RevokeTokens(ctx context.Context, tokens []models.Token) error
	RotateTokens(ctx context.Context, userID int64, current string, replacements []models.Token) error
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Auth struct {
	log        *slog.Logger
	users      UserStore
	ledger     TokenLedger
	codec      *jwt.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(
	log *slog.Logger,
	users UserStore,
	ledger TokenLedger,
	codec *jwt.Codec,
	accessTTL, refreshTTL time.Duration,
) *Auth {
	return &Auth{
		log:        log,
		users:      users,
		ledger:     ledger,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register creates the user and issues the first token pair. Duplicate
// emails are detected at the persistence layer, not pre-checked.
// Registration does not revoke other sessions of the same email (there
// cannot be any) nor of other devices.
func (a *Auth) Register(ctx context.Context, firstname, lastname, email, password string) (TokenPair, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Firstname: firstname,
		Lastname:  lastname,
		Email:     email,
		PassHash:  passHash,
		Role:      models.RoleUser,
	}

	id, err := a.users.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists", slog.String("email", email))
			return TokenPair{}, ErrUserExists
		}

		log.Error("failed to save user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id

	pair, records, err := a.mintPair(user)
	if err != nil {
		log.Error("failed to mint tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.ledger.SaveTokens(ctx, records...); err != nil {
		log.Error("failed to record tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("new user registered", slog.String("email", email))

	return pair, nil
}

// Authenticate verifies the credentials, revokes every token the user
// still holds, and issues a fresh pair. Revoke and issue commit as one
// unit.
func (a *Auth) Authenticate(ctx context.Context, email, password string) (TokenPair, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op))

	user, err := a.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", slog.String("email", email))
			return TokenPair{}, ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", slog.String("email", email))
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, records, err := a.mintPair(user)
	if err != nil {
		log.Error("failed to mint tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.ledger.RotateTokens(ctx, user.ID, "", records); err != nil {
		log.Error("failed to rotate tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user authenticated", slog.String("email", email))

	return pair, nil
}

// RefreshFromHeader exchanges a refresh token, presented as a bearer
// Authorization header, for a new pair. The presented token must be of
// refresh kind, known to the ledger, unrevoked, and pass the strict
// codec check. Rotation is atomic; when two refreshes race on the same
// token, the loser gets ErrTokenInvalid.
func (a *Auth) RefreshFromHeader(ctx context.Context, authHeader string) (TokenPair, error) {
	const op = "auth.RefreshFromHeader"

	log := a.log.With(slog.String("op", op))

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return TokenPair{}, ErrAuthMissing
	}
	raw := strings.TrimPrefix(authHeader, bearerPrefix)

	subject, err := a.codec.Subject(raw)
	if err != nil || subject == "" {
		log.Warn("refresh token did not decode")
		return TokenPair{}, ErrAuthMissing
	}

	kind, err := a.codec.Kind(raw)
	if err != nil || kind != jwt.KindRefresh {
		log.Warn("wrong token kind on refresh", slog.String("subject", subject))
		return TokenPair{}, ErrTokenInvalid
	}

	user, err := a.users.UserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return TokenPair{}, ErrUserNotFound
		}

		log.Error("failed to get user", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := a.ledger.TokenByValue(ctx, raw)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("refresh token not in ledger", slog.String("subject", subject))
			return TokenPair{}, ErrTokenInvalid
		}

		log.Error("failed to look up token", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if stored.Revoked || !a.codec.Valid(raw, user.Email) {
		log.Warn("invalid refresh token", slog.String("subject", subject))
		return TokenPair{}, ErrTokenInvalid
	}

	pair, records, err := a.mintPair(user)
	if err != nil {
		log.Error("failed to mint tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.ledger.RotateTokens(ctx, user.ID, raw, records); err != nil {
		if errors.Is(err, storage.ErrTokenRevoked) {
			log.Warn("lost refresh race", slog.String("subject", subject))
			return TokenPair{}, ErrTokenInvalid
		}

		log.Error("failed to rotate tokens", sl.Err(err))
		return TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens refreshed", slog.String("email", user.Email))

	return pair, nil
}

// Logout revokes every valid token of the caller. It is best-effort
// throughout: a missing header, a stale token, or an unknown user is
// not an error. Even an expired token identifies its owner here.
func (a *Auth) Logout(ctx context.Context, authHeader string) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return nil
	}
	raw := strings.TrimPrefix(authHeader, bearerPrefix)

	subject, err := a.codec.SubjectLenient(raw)
	if err != nil || subject == "" {
		log.Warn("invalid token on logout")
		return nil
	}

	user, err := a.users.UserByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}

		log.Error("failed to get user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	tokens, err := a.ledger.ValidTokensByUser(ctx, user.ID)
	if err != nil {
		log.Error("failed to list tokens", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(tokens) == 0 {
		return nil
	}

	if err := a.ledger.RevokeTokens(ctx, tokens); err != nil {
		log.Error("failed to revoke tokens", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("all tokens revoked", slog.String("email", user.Email))

	return nil
}

func (a *Auth) mintPair(user models.User) (TokenPair, []models.Token, error) {
	access, err := a.codec.Encode(user.Email, jwt.KindAccess, a.accessTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}

	refresh, err := a.codec.Encode(user.Email, jwt.KindRefresh, a.refreshTTL)
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := time.Now()
	records := []models.Token{
		{
			Token:     access,
			TokenType: models.TokenTypeBearer,
			ExpiresAt: now.Add(a.accessTTL),
			UserID:    user.ID,
		},
		{
			Token:     refresh,
			TokenType: models.TokenTypeBearer,
			ExpiresAt: now.Add(a.refreshTTL),
			UserID:    user.ID,
		},
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, records, nil
}
