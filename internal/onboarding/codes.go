package onboarding

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lora-lending/lora/internal/notification"
)

const codePrefix = "onboarding:code:v1:"

// CodeVerifier issues the verification code for a phone number and later
// checks what the user typed against it.
type CodeVerifier interface {
	Issue(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) (bool, error)
}

// StaticCodes accepts one fixed code for every phone. Meant for demos and
// local development only.
type StaticCodes struct {
	Code string
}

// Issue is a no-op; the code never changes.
func (StaticCodes) Issue(context.Context, string) error { return nil }

// Verify compares code with the fixed value.
func (s StaticCodes) Verify(_ context.Context, _ string, code string) (bool, error) {
	return ValidateCode(code, s.Code) == nil, nil
}

// RedisCodes issues random six digit codes, keeps them in Redis for ttl and
// hands them to the notifier for delivery.
type RedisCodes struct {
	cache    *redis.Client
	ttl      time.Duration
	notifier notification.Notifier
}

// NewRedisCodes builds a Redis-backed code verifier.
func NewRedisCodes(cache *redis.Client, ttl time.Duration, notifier notification.Notifier) *RedisCodes {
	return &RedisCodes{cache: cache, ttl: ttl, notifier: notifier}
}

// Issue replaces any outstanding code for phone with a fresh one.
func (r *RedisCodes) Issue(ctx context.Context, phone string) error {
	code, err := randomCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := r.cache.Set(ctx, codePrefix+phone, code, r.ttl).Err(); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if r.notifier != nil {
		if err := r.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindVerificationCode,
			Destination: phone,
			Body:        fmt.Sprintf("Your Lora MPIN is %s", code),
		}); err != nil {
			return fmt.Errorf("deliver code: %w", err)
		}
	}
	return nil
}

// Verify checks code against the outstanding one and consumes it on match.
func (r *RedisCodes) Verify(ctx context.Context, phone, code string) (bool, error) {
	stored, err := r.cache.Get(ctx, codePrefix+phone).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	if err := r.cache.Del(ctx, codePrefix+phone).Err(); err != nil {
		return false, fmt.Errorf("consume code: %w", err)
	}
	return true, nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
