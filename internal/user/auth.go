package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionLifetime = 7 * 24 * time.Hour

	// Sessions within this window of expiry are silently extended.
	sessionRenewal = 3 * 24 * time.Hour
)

var errSessionExpired = errors.New("session expired")

func (r *repository) generateSessionToken() (string, error) {
	bytes := make([]byte, 20)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)

	return encoder.EncodeToString(bytes), nil
}

func sessionIDFromToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func (r *repository) createSession(ctx context.Context, token, userID string) (session, error) {
	ses := session{
		SessionID: sessionIDFromToken(token),
		UserID:    userID,
		ExpiresAt: time.Now().Add(sessionLifetime),
	}

	byt, err := json.Marshal(ses)
	if err != nil {
		return session{}, err
	}

	sessionKey := fmt.Sprintf("session:%s", ses.SessionID)
	if err := r.redisClient.Set(ctx, sessionKey, byt, time.Until(ses.ExpiresAt)).Err(); err != nil {
		return session{}, err
	}

	userSessionsKey := fmt.Sprintf("user_sessions:%s", userID)
	if err := r.redisClient.SAdd(ctx, userSessionsKey, ses.SessionID).Err(); err != nil {
		return session{}, err
	}

	return ses, nil
}

func (r *repository) validateSessionToken(
	ctx context.Context,
	token string,
) (loginResponse, error) {
	sessionID := sessionIDFromToken(token)
	sessionKey := fmt.Sprintf("session:%s", sessionID)

	data, err := r.redisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return loginResponse{}, err
	}

	var ses session

	if err := json.Unmarshal([]byte(data), &ses); err != nil {
		return loginResponse{}, err
	}

	now := time.Now()
	if !now.Before(ses.ExpiresAt) {
		if err := r.invalidateSession(ctx, sessionID, ses.UserID); err != nil {
			return loginResponse{}, err
		}

		return loginResponse{}, errSessionExpired
	}

	if now.After(ses.ExpiresAt.Add(-sessionRenewal)) {
		ses.ExpiresAt = now.Add(sessionLifetime)

		byt, err := json.Marshal(ses)
		if err != nil {
			return loginResponse{}, err
		}

		if err := r.redisClient.Set(
			ctx,
			sessionKey,
			byt,
			time.Until(ses.ExpiresAt),
		).Err(); err != nil {
			return loginResponse{}, err
		}
	}

	account, err := r.Get(ctx, ses.UserID)
	if err != nil {
		return loginResponse{}, err
	}

	return loginResponse{
		User:    account,
		Session: ses,
	}, nil
}

func (r *repository) invalidateSession(ctx context.Context, sessionID, userID string) error {
	sessionKey := fmt.Sprintf("session:%s", sessionID)
	if err := r.redisClient.Del(ctx, sessionKey).Err(); err != nil {
		return err
	}

	userSessionsKey := fmt.Sprintf("user_sessions:%s", userID)
	if err := r.redisClient.SRem(ctx, userSessionsKey, sessionID).Err(); err != nil {
		return err
	}

	return nil
}

func hashSecret(secret string) (string, error) {
	result, err := bcrypt.GenerateFromPassword([]byte(secret), 14)
	return string(result), err
}

func checkSecretHash(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
