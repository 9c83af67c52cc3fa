package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleGuest      Role = "GUEST"
	RoleCustomer   Role = "CUSTOMER"
	RoleMerchant   Role = "MERCHANT"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// StoreRef identifies the merchant's store. Present only for MERCHANT sessions.
type StoreRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Session is the authenticated identity attached to outgoing requests.
// An empty token means a guest session, and a guest session must carry
// RoleGuest and no store.
type Session struct {
	Token    string    `json:"token"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	Store    *StoreRef `json:"store,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.Token != ""
}

// CartItem is one line of the server-owned cart, one per product.
type CartItem struct {
	ID                uint            `json:"id"`
	ProductID         uuid.UUID       `json:"productId"`
	ProductName       string          `json:"productName"`
	ImageURL          string          `json:"imageUrl"`
	UnitPrice         decimal.Decimal `json:"price"`
	Quantity          uint            `json:"quantity"`
	AvailableQuantity uint            `json:"availableQuantity"`
}

type WishlistItem struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	ImageURL    string          `json:"imageUrl"`
	UnitPrice   decimal.Decimal `json:"price"`
}

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    uint            `json:"quantity"`
	ImageURL    string          `json:"imageUrl"`
	StoreID     uuid.UUID       `json:"storeId"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	SectionID   uuid.UUID       `json:"sectionId"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	SectionID uuid.UUID `json:"sectionId"`
}

type Section struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories,omitempty"`
}

type Discount struct {
	Name      string          `json:"name"`
	Percent   decimal.Decimal `json:"percent"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
}

// OrderDraft holds the checkout form. It is ephemeral: built at checkout
// time, submitted once, discarded.
type OrderDraft struct {
	Address1      string          `json:"address1"`
	Address2      string          `json:"address2"`
	ZipCode       string          `json:"zipCode"`
	Country       string          `json:"country"`
	City          string          `json:"city"`
	ContactNumber string          `json:"contactNumber"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
}

// OrderResult is the backend's answer to a checkout submission.
type OrderResult struct {
	OrderID uuid.UUID `json:"orderId"`
	Message string    `json:"message"`
}

// LatestOrder is what the payment step consumes after a successful checkout.
type LatestOrder struct {
	OrderID         uuid.UUID       `json:"orderId"`
	Message         string          `json:"message"`
	ShippingAddress string          `json:"shippingAddress"`
	DiscountPrice   decimal.Decimal `json:"discountPrice"`
}

// StockUpdate is an advisory push from the stock feed. It is a UI hint and
// never an input to checkout validation.
type StockUpdate struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  uint      `json:"quantity"`
}
