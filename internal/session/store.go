package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Store owns one shopper session. Dispatch calls are serialized; Exclusive
// serializes whole flows that read from the network before dispatching.
type Store struct {
	mu      sync.Mutex
	flow    sync.Mutex
	state   Snapshot
	storage Storage
}

// Load seeds a store from storage. Missing keys are unset; values that do
// not decode are logged and treated as unset.
func Load(ctx context.Context, storage Storage) *Store {
	l := logging.FromContext(ctx).With("component", "session.load")
	st := Snapshot{Cart: Cart{Items: []models.CartLine{}}}

	if v, ok := get(ctx, l, storage, KeyDarkMode); ok {
		st.DarkMode = v == "ON"
	}

	if v, ok := get(ctx, l, storage, KeyCartItems); ok {
		var items []models.CartLine
		if err := json.Unmarshal([]byte(v), &items); err != nil {
			l.Warn("session_value_ignored", "key", KeyCartItems, "error", err)
		} else {
			for _, it := range items {
				st.Cart.Items = upsert(st.Cart.Items, it)
			}
		}
	}

	if v, ok := get(ctx, l, storage, KeyShippingAddress); ok {
		var addr models.Address
		if err := json.Unmarshal([]byte(v), &addr); err != nil {
			l.Warn("session_value_ignored", "key", KeyShippingAddress, "error", err)
		} else if addr != (models.Address{}) {
			st.Cart.ShippingAddress = &addr
		}
	}

	if v, ok := get(ctx, l, storage, KeyPaymentMethod); ok {
		if m := models.PaymentMethod(v); m.Valid() {
			st.Cart.PaymentMethod = m
		} else {
			l.Warn("session_value_ignored", "key", KeyPaymentMethod, "value", v)
		}
	}

	if v, ok := get(ctx, l, storage, KeyUserInfo); ok {
		var u UserInfo
		if err := json.Unmarshal([]byte(v), &u); err != nil {
			l.Warn("session_value_ignored", "key", KeyUserInfo, "error", err)
		} else {
			st.UserInfo = &u
		}
	}

	return &Store{state: st, storage: storage}
}

func get(ctx context.Context, l *slog.Logger, s Storage, key string) (string, bool) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		l.Warn("session_value_ignored", "key", key, "error", err)
		return "", false
	}
	return v, ok && v != ""
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Dispatch applies a, persists the keys it touches and returns the new
// snapshot. A storage failure is logged; the in-memory state still advances.
func (s *Store) Dispatch(ctx context.Context, a Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Reduce(s.state, a)
	s.state = next

	if err := s.persist(ctx, a, next); err != nil {
		logging.FromContext(ctx).Error("session_persist_error", "action", a.Tag(), "error", err)
	}
	return next.clone()
}

// Exclusive runs fn while holding the store's flow lock.
func (s *Store) Exclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	s.flow.Lock()
	defer s.flow.Unlock()
	return fn(ctx)
}

func (s *Store) persist(ctx context.Context, a Action, st Snapshot) error {
	switch a.(type) {
	case DarkModeOn:
		return s.storage.Set(ctx, KeyDarkMode, "ON")
	case DarkModeOff:
		return s.storage.Set(ctx, KeyDarkMode, "OFF")
	case AddCartItem, DeleteCartItem:
		return s.setJSON(ctx, KeyCartItems, st.Cart.Items)
	case ClearCart:
		return s.storage.Remove(ctx, KeyCartItems)
	case SaveShippingAddress:
		return s.setJSON(ctx, KeyShippingAddress, st.Cart.ShippingAddress)
	case SavePaymentMethod:
		return s.storage.Set(ctx, KeyPaymentMethod, string(st.Cart.PaymentMethod))
	case UserLogin:
		return s.setJSON(ctx, KeyUserInfo, st.UserInfo)
	case UserLogout:
		if err := s.storage.Remove(ctx, KeyUserInfo); err != nil {
			return err
		}
		return s.storage.Remove(ctx, KeyCartItems)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.storage.Set(ctx, key, string(b))
}
