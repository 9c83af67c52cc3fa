package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shopishop/client-go/internal/cart"
	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/internal/store"
	"github.com/shopishop/client-go/pkg/restclient"
)

type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Flow drives one checkout: Editing -> Submitting -> Succeeded | Failed.
// A failed submission is retryable; Succeeded is terminal (the payment step
// takes over from the persisted latest order). The cart is re-validated
// through a synchronous fetch at submit time; advisory stock pushes are
// never a checkout input.
type Flow struct {
	mu      sync.Mutex
	state   State
	lastErr error

	api      *restclient.Client
	sessions *session.Manager
	cart     *cart.Synchronizer
	store    *store.Store
	log      *slog.Logger
}

func NewFlow(api *restclient.Client, sessions *session.Manager, c *cart.Synchronizer, st *store.Store, log *slog.Logger) *Flow {
	return &Flow{
		state:    StateEditing,
		api:      api,
		sessions: sessions,
		cart:     c,
		store:    st,
		log:      log.With("component", "checkout"),
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Reset returns the flow to Editing for a fresh checkout.
func (f *Flow) Reset() {
	f.mu.Lock()
	f.state = StateEditing
	f.lastErr = nil
	f.mu.Unlock()
}

type orderRequest struct {
	ShippingAddress string            `json:"shippingAddress"`
	DiscountPrice   decimal.Decimal   `json:"discountPrice"`
	Cart            []models.CartItem `json:"cart"`
	ContactNumber   string            `json:"contactNumber"`
	City            string            `json:"city"`
}

// Submit validates the draft, re-validates the cart against the backend and
// posts the order. Field validation happens before any state transition or
// network call. On success the order reference is persisted for the payment
// step; on any transport or server failure the cart and session are left
// untouched and the flow is retryable.
func (f *Flow) Submit(ctx context.Context, draft models.OrderDraft) (models.OrderResult, error) {
	if err := validateDraft(draft); err != nil {
		return models.OrderResult{}, err
	}

	f.mu.Lock()
	if f.state == StateSubmitting || f.state == StateSucceeded {
		state := f.state
		f.mu.Unlock()
		return models.OrderResult{}, fmt.Errorf("checkout already %s", state)
	}
	f.state = StateSubmitting
	f.mu.Unlock()

	token := f.sessions.Token()
	if token == "" {
		err := fmt.Errorf("submit order: %w", clienterr.ErrUnauthenticated)
		f.fail(err)
		return models.OrderResult{}, err
	}

	items, err := f.cart.FetchCart(ctx)
	if err != nil {
		err = fmt.Errorf("submit order: %w", err)
		f.fail(err)
		return models.OrderResult{}, err
	}
	if len(items) == 0 {
		err := fmt.Errorf("cart is empty: %w", clienterr.ErrValidation)
		f.fail(err)
		return models.OrderResult{}, err
	}

	req := orderRequest{
		ShippingAddress: draft.Address1,
		DiscountPrice:   draft.DiscountPrice,
		Cart:            items,
		ContactNumber:   draft.ContactNumber,
		City:            draft.City,
	}
	var resp models.OrderResult
	if err := f.api.DoJSON(ctx, http.MethodPost, "/customer/orders/checkout", token, req, &resp); err != nil {
		err = fmt.Errorf("submit order: %w", err)
		f.fail(err)
		return models.OrderResult{}, err
	}

	latest := models.LatestOrder{
		OrderID:         resp.OrderID,
		Message:         resp.Message,
		ShippingAddress: draft.Address1,
		DiscountPrice:   draft.DiscountPrice,
	}
	if err := f.store.SaveLatestOrder(latest); err != nil {
		f.log.Error("persist latest order", "error", err)
	}

	f.mu.Lock()
	f.state = StateSucceeded
	f.lastErr = nil
	f.mu.Unlock()
	f.log.Info("order created", "orderID", resp.OrderID)
	return resp, nil
}

// LatestOrder is the persisted result of the last successful submission,
// consumed by the payment step.
func (f *Flow) LatestOrder() (models.LatestOrder, bool, error) {
	return f.store.LoadLatestOrder()
}

func (f *Flow) fail(err error) {
	f.mu.Lock()
	f.state = StateFailed
	f.lastErr = err
	f.mu.Unlock()
	f.log.Warn("checkout failed", "error", err)
}

func validateDraft(draft models.OrderDraft) error {
	fields := []struct {
		name  string
		value string
	}{
		{"address1", draft.Address1},
		{"zipCode", draft.ZipCode},
		{"country", draft.Country},
		{"city", draft.City},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s is required: %w", f.name, clienterr.ErrValidation)
		}
	}
	return nil
}
