package stockfeed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/shopishop/client-go/internal/models"
)

// Feed consumes pushed stock-level changes over a websocket. It is a second,
// advisory read model: product pages show its numbers, but checkout never
// consults it. Its update path is kept fully separate from the cart mirror.
type Feed struct {
	url string
	log *slog.Logger

	mu         sync.RWMutex
	quantities map[uuid.UUID]uint
	subs       map[uuid.UUID][]func(models.StockUpdate)
}

func New(url string, log *slog.Logger) *Feed {
	return &Feed{
		url:        url,
		log:        log.With("component", "stockfeed"),
		quantities: make(map[uuid.UUID]uint),
		subs:       make(map[uuid.UUID][]func(models.StockUpdate)),
	}
}

// Subscribe registers a per-product callback, matching how a product page
// watches its own stock line.
func (f *Feed) Subscribe(productID uuid.UUID, fn func(models.StockUpdate)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[productID] = append(f.subs[productID], fn)
}

// Quantity returns the last pushed quantity for a product, if any was seen.
func (f *Feed) Quantity(productID uuid.UUID) (uint, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quantities[productID]
	return q, ok
}

// Run connects and reads until ctx is done, reconnecting with a flat delay.
// Feed failures are logged and retried; they never affect session or cart.
func (f *Feed) Run(ctx context.Context) {
	const retryDelay = 5 * time.Second

	for {
		if err := f.readLoop(ctx); err != nil {
			f.log.Warn("stock feed disconnected", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (f *Feed) readLoop(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	f.log.Info("stock feed connected", "url", f.url)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var update models.StockUpdate
		if err := json.Unmarshal(data, &update); err != nil {
			f.log.Warn("bad stock update", "error", err)
			continue
		}
		f.dispatch(update)
	}
}

func (f *Feed) dispatch(update models.StockUpdate) {
	f.mu.Lock()
	f.quantities[update.ProductID] = update.Quantity
	subs := append([]func(models.StockUpdate){}, f.subs[update.ProductID]...)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(update)
	}
}
