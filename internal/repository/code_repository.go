package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// ErrCodeInvalid covers unknown, expired and mismatched confirmation
// codes alike; callers must not be able to tell the cases apart.
var ErrCodeInvalid = errors.New("confirmation code is invalid or expired")

// CodeRepository stores single-use confirmation codes. Codes are
// bcrypt-hashed at rest and expire via the store's TTL.
type CodeRepository interface {
	Store(ctx context.Context, username, code string) error
	Verify(ctx context.Context, username, code string) error
	Consume(ctx context.Context, username string) error
}

type codeRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeRepository(client *redis.Client, ttl time.Duration) CodeRepository {
	return &codeRepository{client: client, ttl: ttl}
}

func codeKey(username string) string {
	return fmt.Sprintf("confirmation_code:%s", username)
}

// Store hashes the code and writes it under the username, replacing
// any previous code for that user.
func (r *codeRepository) Store(ctx context.Context, username, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, codeKey(username), hash, r.ttl).Err()
}

// Verify compares the presented code against the stored hash.
func (r *codeRepository) Verify(ctx context.Context, username, code string) error {
	hash, err := r.client.Get(ctx, codeKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeInvalid
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		return ErrCodeInvalid
	}
	return nil
}

// Consume deletes the code so it cannot be exchanged twice.
func (r *codeRepository) Consume(ctx context.Context, username string) error {
	return r.client.Del(ctx, codeKey(username)).Err()
}
