package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Wishlist is a set keyed by productId, mirrored to the backend with one
// call per mutation. Membership is identity, never struct equality.
type Wishlist struct {
	mu    sync.RWMutex
	items map[uuid.UUID]models.WishlistItem

	api      *restclient.Client
	sessions *session.Manager
	store    *store.Store
	log      *slog.Logger
}

func New(api *restclient.Client, sessions *session.Manager, st *store.Store, log *slog.Logger) *Wishlist {
	w := &Wishlist{
		items:    make(map[uuid.UUID]models.WishlistItem),
		api:      api,
		sessions: sessions,
		store:    st,
		log:      log.With("component", "wishlist"),
	}
	if items, err := st.LoadWishlist(); err == nil {
		for _, it := range items {
			w.items[it.ProductID] = it
		}
	} else {
		w.log.Warn("load persisted wishlist", "error", err)
	}
	sessions.Subscribe(func(models.Session) { w.reset() })
	return w
}

func (w *Wishlist) reset() {
	w.mu.Lock()
	w.items = make(map[uuid.UUID]models.WishlistItem)
	w.mu.Unlock()
}

func (w *Wishlist) Contains(productID uuid.UUID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.items[productID]
	return ok
}

func (w *Wishlist) Items() []models.WishlistItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.WishlistItem, 0, len(w.items))
	for _, it := range w.items {
		out = append(out, it)
	}
	return out
}

// Refresh replaces the local set with server truth.
func (w *Wishlist) Refresh(ctx context.Context) error {
	token := w.sessions.Token()
	if token == "" {
		return fmt.Errorf("fetch wishlist: %w", clienterr.ErrUnauthenticated)
	}

	var items []models.WishlistItem
	if err := w.api.DoJSON(ctx, http.MethodGet, "/customer/wishlist/all", token, nil, &items); err != nil {
		return fmt.Errorf("fetch wishlist: %w", err)
	}

	w.mu.Lock()
	w.items = make(map[uuid.UUID]models.WishlistItem, len(items))
	for _, it := range items {
		w.items[it.ProductID] = it
	}
	w.mu.Unlock()
	w.persist()
	return nil
}

// Toggle adds the product if absent and removes it if present. It reports
// whether the product is a member after the call.
func (w *Wishlist) Toggle(ctx context.Context, product models.Product) (bool, error) {
	token := w.sessions.Token()
	if token == "" {
		return false, fmt.Errorf("toggle wishlist: %w", clienterr.ErrUnauthenticated)
	}

	if w.Contains(product.ID) {
		err := w.api.DoJSON(ctx, http.MethodDelete, "/customer/wishlist/remove/"+product.ID.String(), token, nil, nil)
		if err != nil && !errors.Is(err, clienterr.ErrNotFound) {
			return true, fmt.Errorf("remove from wishlist: %w", err)
		}
		w.mu.Lock()
		delete(w.items, product.ID)
		w.mu.Unlock()
		w.persist()
		return false, nil
	}

	item := models.WishlistItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		ImageURL:    product.ImageURL,
		UnitPrice:   product.Price,
	}
	if err := w.api.DoJSON(ctx, http.MethodPost, "/customer/wishlist/add", token, item, nil); err != nil {
		return false, fmt.Errorf("add to wishlist: %w", err)
	}
	w.mu.Lock()
	w.items[product.ID] = item
	w.mu.Unlock()
	w.persist()
	return true, nil
}

func (w *Wishlist) persist() {
	if err := w.store.ReplaceWishlist(w.Items()); err != nil {
		w.log.Error("persist wishlist mirror", "error", err)
	}
}
