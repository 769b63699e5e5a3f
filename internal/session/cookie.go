package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const cookieTTL = 30 * 24 * time.Hour

// CookieStorage keeps each session key in its own cookie. Values are
// base64url encoded because JSON is not a valid cookie value. Writes are
// visible to later reads in the same request.
type CookieStorage struct {
	c       echo.Context
	secure  bool
	written map[string]*string
}

func NewCookieStorage(c echo.Context, secure bool) *CookieStorage {
	return &CookieStorage{c: c, secure: secure, written: map[string]*string{}}
}

func (s *CookieStorage) Get(_ context.Context, key string) (string, bool, error) {
	if v, ok := s.written[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	ck, err := s.c.Cookie(key)
	if err != nil || ck.Value == "" {
		return "", false, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

func (s *CookieStorage) Set(_ context.Context, key, value string) error {
	s.written[key] = &value
	s.c.SetCookie(&http.Cookie{
		Name:     key,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(value)),
		Path:     "/",
		Expires:  time.Now().Add(cookieTTL),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *CookieStorage) Remove(_ context.Context, key string) error {
	s.written[key] = nil
	s.c.SetCookie(&http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
