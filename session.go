package authgate

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// Provider session cookies follow the Supabase SSR layout: a cookie named
// sb-<project-ref>-auth-token holding "base64-" + base64url(JSON session),
// split into sb-...-auth-token.0, .1, ... chunks when the payload exceeds the
// per-cookie size limit.
const (
	sessionCookiePrefix    = "sb-"
	sessionCookieSuffix    = "-auth-token"
	base64SessionPrefix    = "base64-"
	sessionCookieMaxChunks = 10
	sessionCookieChunkSize = 3180
)

// SessionCookieName returns the auth-token cookie name for a project ref.
func SessionCookieName(projectRef string) string {
	return sessionCookiePrefix + projectRef + sessionCookieSuffix
}

// ReadSessionCookie reassembles the session cookie value from the request,
// handling both the single-cookie and chunked layouts. Empty when absent.
func ReadSessionCookie(rc router.Context, name string) string {
	if v := rc.Cookies(name); v != "" {
		return v
	}

	var sb strings.Builder
	for i := 0; i < sessionCookieMaxChunks; i++ {
		chunk := rc.Cookies(name + "." + strconv.Itoa(i))
		if chunk == "" {
			break
		}
		sb.WriteString(chunk)
	}
	return sb.String()
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    int64        `json:"expires_at"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         *sessionUser `json:"user"`
}

type sessionUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// ParseSessionCookie decodes a reassembled cookie value into a
// ProviderSession. It accepts both the base64-prefixed and plain JSON forms.
func ParseSessionCookie(raw string) (*ProviderSession, error) {
	if raw == "" {
		return nil, fmt.Errorf("session cookie is empty")
	}

	data := []byte(raw)
	if strings.HasPrefix(raw, base64SessionPrefix) {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(raw, base64SessionPrefix))
		if err != nil {
			return nil, fmt.Errorf("decode session cookie: %w", err)
		}
		data = decoded
	}

	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse session cookie: %w", err)
	}

	if payload.AccessToken == "" {
		return nil, fmt.Errorf("session cookie has no access token")
	}

	session := &ProviderSession{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}
	if payload.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(payload.ExpiresAt, 0)
	}

	if payload.User != nil {
		id, err := uuid.Parse(payload.User.ID)
		if err != nil {
			return nil, fmt.Errorf("parse session user id: %w", err)
		}
		session.User = &Principal{
			ID:       id,
			Email:    payload.User.Email,
			Phone:    payload.User.Phone,
			Metadata: payload.User.UserMetadata,
		}
	}

	return session, nil
}

// EncodeSessionCookie serializes a refreshed session back into the cookie
// wire form so middleware can write it to the response.
func EncodeSessionCookie(session *ProviderSession) (string, error) {
	payload := sessionPayload{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "bearer",
	}
	if !session.ExpiresAt.IsZero() {
		payload.ExpiresAt = session.ExpiresAt.Unix()
	}
	if session.User != nil {
		payload.User = &sessionUser{
			ID:           session.User.ID.String(),
			Email:        session.User.Email,
			Phone:        session.User.Phone,
			UserMetadata: session.User.Metadata,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode session cookie: %w", err)
	}

	return base64SessionPrefix + base64.RawURLEncoding.EncodeToString(data), nil
}

// WriteSessionCookie stores a session on the response. Refreshed tokens must
// reach the browser or the next request replays the stale pair. Values above
// the per-cookie size limit are split into .0, .1, ... chunks, mirroring
// ReadSessionCookie; the opposite layout's cookies are expired so a stale
// value cannot shadow the fresh one.
func WriteSessionCookie(rc router.Context, name string, session *ProviderSession) error {
	value, err := EncodeSessionCookie(session)
	if err != nil {
		return err
	}

	expires := session.ExpiresAt
	if expires.IsZero() {
		expires = time.Now().Add(24 * time.Hour)
	}

	if len(value) <= sessionCookieChunkSize {
		setSessionCookie(rc, name, value, expires)
		expireSessionCookie(rc, name+".0")
		return nil
	}

	if len(value) > sessionCookieChunkSize*sessionCookieMaxChunks {
		return fmt.Errorf("session cookie value exceeds %d chunks", sessionCookieMaxChunks)
	}

	expireSessionCookie(rc, name)
	for i := 0; len(value) > 0; i++ {
		n := sessionCookieChunkSize
		if n > len(value) {
			n = len(value)
		}
		setSessionCookie(rc, name+"."+strconv.Itoa(i), value[:n], expires)
		value = value[n:]
	}
	return nil
}

func setSessionCookie(rc router.Context, name, value string, expires time.Time) {
	rc.Cookie(&router.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func expireSessionCookie(rc router.Context, name string) {
	if rc.Cookies(name) == "" {
		return
	}
	rc.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-24 * time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
