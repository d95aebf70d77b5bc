package core

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valter-silva-au/taskdesk/internal/clock"
	"github.com/valter-silva-au/taskdesk/pkg/models"
)

// KeyValueStore is the subset of a key-value backend the auth service and
// workspace store need. A zero ttl means the key never expires. Defining
// it here keeps core independent of the storage package.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
}

// Mailer delivers login codes.
type Mailer interface {
	SendCode(ctx context.Context, email, code string, validFor time.Duration) error
}

var (
	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("a valid email address is required")
	// ErrInvalidCode is returned when the code is not six digits.
	ErrInvalidCode = errors.New("a 6-digit code is required")
	// ErrCodeMismatch is returned when the code is wrong or expired.
	ErrCodeMismatch = errors.New("the code is incorrect")
	// ErrUnauthorized is returned for a missing or expired session token.
	ErrUnauthorized = errors.New("session is invalid or expired")
)

// RateLimitError is returned when a code was requested too recently.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please retry in %d seconds", ceilSeconds(e.RetryAfter))
}

// LockoutError is returned while an address is locked after too many
// failed verifications.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d minutes", ceilMinutes(e.RetryAfter))
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

// AuthService implements the passwordless one-time-code login.
type AuthService interface {
	RequestCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
}

type authService struct {
	kv     KeyValueStore
	mailer Mailer
	clock  clock.Clock
	cfg    models.AuthConfig
	logger *slog.Logger
}

// NewAuthService creates an AuthService backed by kv.
func NewAuthService(kv KeyValueStore, mailer Mailer, clk clock.Clock, cfg models.AuthConfig, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{kv: kv, mailer: mailer, clock: clk, cfg: cfg, logger: logger}
}

// NormalizeEmail lower-cases and trims an address and validates its shape.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// RequestCode issues a fresh code for email unless one was sent within the
// cooldown. It succeeds whether or not the address has been seen before.
func (s *authService) RequestCode(ctx context.Context, email string) error {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	last, ok, err := s.kv.Get(ctx, rateLimitKey(addr))
	if err != nil {
		return fmt.Errorf("checking rate limit: %w", err)
	}
	if ok {
		if sentMillis, perr := strconv.ParseInt(last, 10, 64); perr == nil {
			elapsed := now.Sub(time.UnixMilli(sentMillis))
			if elapsed < s.cfg.Cooldown {
				s.logger.Info("login code throttled", "email", addr)
				return &RateLimitError{RetryAfter: s.cfg.Cooldown - elapsed}
			}
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}
	if err := s.kv.Set(ctx, codeKey(addr), code, s.cfg.CodeTTL); err != nil {
		return fmt.Errorf("storing code: %w", err)
	}
	if err := s.kv.Set(ctx, rateLimitKey(addr), strconv.FormatInt(now.UnixMilli(), 10), s.cfg.Cooldown); err != nil {
		return fmt.Errorf("storing rate limit: %w", err)
	}
	if err := s.mailer.SendCode(ctx, addr, code, s.cfg.CodeTTL); err != nil {
		return fmt.Errorf("sending code: %w", err)
	}
	return nil
}

// VerifyCode checks a code and, on success, issues a session token and
// invalidates the code.
func (s *authService) VerifyCode(ctx context.Context, email, code string) (string, error) {
	addr, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	if !codePattern.MatchString(code) {
		return "", ErrInvalidCode
	}

	attemptsKey := attemptsKey(addr)
	raw, ok, err := s.kv.Get(ctx, attemptsKey)
	if err != nil {
		return "", fmt.Errorf("checking attempts: %w", err)
	}
	if ok {
		if attempts, perr := strconv.Atoi(raw); perr == nil && attempts >= s.cfg.MaxAttempts {
			retry, terr := s.kv.TTL(ctx, attemptsKey)
			if terr != nil || retry <= 0 {
				retry = s.cfg.Lockout
			}
			return "", &LockoutError{RetryAfter: retry}
		}
	}

	stored, ok, err := s.kv.Get(ctx, codeKey(addr))
	if err != nil {
		return "", fmt.Errorf("reading code: %w", err)
	}
	if !ok || stored != code {
		if _, err := s.kv.Incr(ctx, attemptsKey); err != nil {
			return "", fmt.Errorf("recording failed attempt: %w", err)
		}
		if err := s.kv.Expire(ctx, attemptsKey, s.cfg.Lockout); err != nil {
			return "", fmt.Errorf("recording failed attempt: %w", err)
		}
		s.logger.Info("login code rejected", "email", addr)
		return "", ErrCodeMismatch
	}

	token := uuid.NewString()
	if err := s.kv.Set(ctx, sessionKey(token), addr, s.cfg.SessionTTL); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	if err := s.kv.Delete(ctx, codeKey(addr), attemptsKey); err != nil {
		return "", fmt.Errorf("clearing code: %w", err)
	}
	return token, nil
}

// Resolve returns the account email a session token belongs to.
func (s *authService) Resolve(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrUnauthorized
	}
	addr, ok, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		return "", fmt.Errorf("resolving session: %w", err)
	}
	if !ok {
		return "", ErrUnauthorized
	}
	return addr, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func rateLimitKey(email string) string { return "ratelimit:" + email }
func codeKey(email string) string      { return "authcode:" + email }
func attemptsKey(email string) string  { return "authcode_attempts:" + email }
func sessionKey(token string) string   { return "session:" + token }

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

func ceilMinutes(d time.Duration) int64 {
	return int64((d + time.Minute - 1) / time.Minute)
}
