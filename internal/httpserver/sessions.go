package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	BackendCookie = "cookie"
	BackendDB     = "db"

	SessionCookie = "sid"
	storeKey      = "session_store"
)

// Sessions loads the shopper session for every request. With the cookie
// backend the session lives in the browser; with the db backend only its id
// does, and requests for the same id are handled one at a time.
type Sessions struct {
	Backend string
	DB      *gorm.DB
	Secure  bool

	locks keyedMutex
}

func (s *Sessions) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if s.Backend != BackendDB {
			c.Set(storeKey, session.Load(ctx, session.NewCookieStorage(c, s.Secure)))
			return next(c)
		}

		sid := s.sessionID(c)
		unlock := s.locks.lock(sid)
		defer unlock()

		c.Set(storeKey, session.Load(ctx, &repo.SessionStorage{DB: s.DB, SessionID: sid}))
		return next(c)
	}
}

func (s *Sessions) sessionID(c echo.Context) string {
	if ck, err := c.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(ck.Value); err == nil {
			return id.String()
		}
	}
	sid := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(30 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func storeOf(c echo.Context) *session.Store {
	st, ok := c.Get(storeKey).(*session.Store)
	if !ok {
		panic("httpserver: session middleware not installed")
	}
	return st
}

type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*refMutex)
	}
	m, ok := k.m[key]
	if !ok {
		m = &refMutex{}
		k.m[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
