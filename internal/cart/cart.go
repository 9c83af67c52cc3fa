package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/events"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Synchronizer mediates between local cart actions and the backend cart
// resource. The backend is authoritative; the mirror here is display state.
// Every mutation is fire-and-refetch: the call goes out, and on success the
// whole cart is fetched again, so the mirror never drifts silently.
//
// Two concurrent mutations are not serialized. Whichever refetch resolves
// last overwrites the mirror (last write wins); the same holds across tabs
// or devices sharing one account, since the backend keeps no version or ETag.
type Synchronizer struct {
	mu    sync.RWMutex
	items []models.CartItem

	api      *restclient.Client
	sessions *session.Manager
	store    *store.Store
	producer events.Publisher
	log      *slog.Logger
}

// NewSynchronizer restores the persisted mirror and subscribes to session
// changes: any login or logout drops the mirror so one user's cart can never
// be shown to another.
func NewSynchronizer(api *restclient.Client, sessions *session.Manager, st *store.Store, producer events.Publisher, log *slog.Logger) *Synchronizer {
	s := &Synchronizer{
		api:      api,
		sessions: sessions,
		store:    st,
		producer: producer,
		log:      log.With("component", "cart"),
	}
	if items, err := st.LoadCart(); err == nil {
		s.items = items
	} else {
		s.log.Warn("load persisted cart", "error", err)
	}
	sessions.Subscribe(func(models.Session) { s.reset() })
	return s
}

func (s *Synchronizer) reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items returns a copy of the mirror.
func (s *Synchronizer) Items() []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total is the mirror's price sum, what the cart badge displays.
func (s *Synchronizer) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s *Synchronizer) lookup(productID uuid.UUID) (models.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return models.CartItem{}, false
}

// FetchCart pulls the full server cart and replaces the mirror wholesale.
func (s *Synchronizer) FetchCart(ctx context.Context) ([]models.CartItem, error) {
	token := s.sessions.Token()
	if token == "" {
		return nil, fmt.Errorf("fetch cart: %w", clienterr.ErrUnauthenticated)
	}

	var items []models.CartItem
	if err := s.api.DoJSON(ctx, http.MethodGet, "/customer/cart/all", token, nil, &items); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	if err := s.store.ReplaceCart(items); err != nil {
		s.log.Error("persist cart mirror", "error", err)
	}
	return s.Items(), nil
}

// AddItem posts a relative quantity change: positive to add or increment,
// negative to decrement. An increment that would push a mirrored line past
// its availableQuantity is rejected locally, before any network call; the
// backend re-validates regardless.
func (s *Synchronizer) AddItem(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return fmt.Errorf("quantity delta must be non-zero: %w", clienterr.ErrValidation)
	}
	token := s.sessions.Token()
	if token == "" {
		return fmt.Errorf("add to cart: %w", clienterr.ErrUnauthenticated)
	}

	if delta > 0 {
		if cur, ok := s.lookup(productID); ok && cur.Quantity+uint(delta) > cur.AvailableQuantity {
			return fmt.Errorf("product %s: %w", productID, clienterr.ErrStockLimitExceeded)
		}
	}

	body := map[string]any{"productId": productID, "quantity": delta}
	if err := s.api.DoJSON(ctx, http.MethodPost, "/customer/cart/add", token, body, nil); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	s.publish(ctx, map[string]any{
		"type":      "add_cart_items",
		"productID": productID,
		"quantity":  delta,
	})

	_, err := s.FetchCart(ctx)
	return err
}

// RemoveItem deletes the whole line. Removing an absent item is not an
// error; the backend answers 404 and the mirror is refreshed either way.
func (s *Synchronizer) RemoveItem(ctx context.Context, productID uuid.UUID) error {
	token := s.sessions.Token()
	if token == "" {
		return fmt.Errorf("remove from cart: %w", clienterr.ErrUnauthenticated)
	}

	err := s.api.DoJSON(ctx, http.MethodDelete, "/customer/cart/remove/"+productID.String(), token, nil, nil)
	if err != nil && !errors.Is(err, clienterr.ErrNotFound) {
		return fmt.Errorf("remove from cart: %w", err)
	}

	s.publish(ctx, map[string]any{
		"type":      "cart_item_deleted",
		"productID": productID,
	})

	_, err = s.FetchCart(ctx)
	return err
}

// DecrementItem lowers a line by one; a line at quantity 1 is removed
// instead, so a quantity-0 line never exists.
func (s *Synchronizer) DecrementItem(ctx context.Context, item models.CartItem) error {
	if item.Quantity <= 1 {
		return s.RemoveItem(ctx, item.ProductID)
	}
	return s.AddItem(ctx, item.ProductID, -1)
}

func (s *Synchronizer) Clear(ctx context.Context) error {
	token := s.sessions.Token()
	if token == "" {
		return fmt.Errorf("clear cart: %w", clienterr.ErrUnauthenticated)
	}

	if err := s.api.DoJSON(ctx, http.MethodDelete, "/customer/cart/clear", token, nil, nil); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	if err := s.store.ReplaceCart(nil); err != nil {
		s.log.Error("persist cart mirror", "error", err)
	}

	s.publish(ctx, map[string]any{"type": "cart_cleared"})
	return nil
}

func (s *Synchronizer) publish(ctx context.Context, event map[string]any) {
	if s.producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	userID := s.sessions.Current().UserID
	event["userID"] = userID
	if err := s.producer.PublishEvent(ctx, userID, event); err != nil {
		s.log.Error("kafka publish error", "error", err)
	}
}
