// Package shoptest runs an in-process stand-in for the storefront backend.
// It speaks the same wire contract the production API does, keeps all state
// in memory and exposes knobs for forcing failures and counting requests.
package shoptest

import (
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shopishop/client-go/internal/models"
)

type userRecord struct {
	Email    string
	Password string
	Username string
	Role     models.Role
	StoreID  uuid.UUID
}

type cartLine struct {
	ID        uint
	ProductID uuid.UUID
	Quantity  uint
}

// ReceivedOrder is a checkout submission as the backend saw it.
type ReceivedOrder struct {
	OrderID         uuid.UUID
	ShippingAddress string
	City            string
	ContactNumber   string
	Cart            []models.CartItem
}

type Server struct {
	URL string

	e      *echo.Echo
	srv    *httptest.Server
	secret []byte

	mu          sync.Mutex
	users       map[string]*userRecord
	tokens      map[string]string // token -> email
	resetTokens map[string]string // reset token -> email
	products    map[uuid.UUID]*models.Product
	carts       map[string]map[uuid.UUID]*cartLine
	wishlists   map[string]map[uuid.UUID]models.WishlistItem
	orders      []ReceivedOrder
	nextLine    uint

	requests atomic.Int64
	failures map[string]int // "METHOD /path/prefix" -> status

	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]bool
}

func NewServer() *Server {
	s := &Server{
		secret:      []byte("shoptest-secret"),
		users:       make(map[string]*userRecord),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
		products:    make(map[uuid.UUID]*models.Product),
		carts:       make(map[string]map[uuid.UUID]*cartLine),
		wishlists:   make(map[string]map[uuid.UUID]models.WishlistItem),
		failures:    make(map[string]int),
		conns:       make(map[*websocket.Conn]bool),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.bookkeeping)

	e.POST("/public/auth/login", s.login)
	e.POST("/public/auth/signup", s.signup)
	e.GET("/public/auth/validate", s.validate)
	e.POST("/public/auth/forgot-password", s.forgotPassword)
	e.GET("/public/auth/verify-reset-token", s.verifyResetToken)
	e.POST("/public/auth/reset-password", s.resetPassword)
	e.POST("/api/user/logout", s.logout)

	e.GET("/customer/cart/all", s.getCart)
	e.POST("/customer/cart/add", s.addToCart)
	e.DELETE("/customer/cart/remove/:id", s.removeFromCart)
	e.DELETE("/customer/cart/clear", s.clearCart)
	e.POST("/customer/orders/checkout", s.checkout)

	e.GET("/customer/wishlist/all", s.getWishlist)
	e.POST("/customer/wishlist/add", s.addToWishlist)
	e.DELETE("/customer/wishlist/remove/:id", s.removeFromWishlist)

	e.GET("/public/product/all", s.listProducts)
	e.GET("/public/product/:id", s.getProduct)
	e.POST("/merchant/product/create", s.createProduct)
	e.PUT("/merchant/product/update-quantity/:id", s.updateQuantity)
	e.DELETE("/merchant/product/delete/:id", s.deleteProduct)

	e.GET("/ws", s.stockSocket)

	s.e = e
	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	return s
}

func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.srv.Close()
}

// WSURL is the websocket endpoint for the stock feed.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
}

// bookkeeping counts every request and applies forced failures.
func (s *Server) bookkeeping(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.requests.Add(1)
		s.mu.Lock()
		for key, status := range s.failures {
			parts := strings.SplitN(key, " ", 2)
			if c.Request().Method == parts[0] && strings.HasPrefix(c.Request().URL.Path, parts[1]) {
				s.mu.Unlock()
				return c.JSON(status, map[string]string{"message": "forced failure"})
			}
		}
		s.mu.Unlock()
		return next(c)
	}
}

// Requests returns how many HTTP calls the server has seen.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// FailWith forces every request matching method and path prefix to answer
// the given status until ClearFailures is called.
func (s *Server) FailWith(method, prefix string, status int) {
	s.mu.Lock()
	s.failures[method+" "+prefix] = status
	s.mu.Unlock()
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]int)
	s.mu.Unlock()
}

// RevokeTokens invalidates all issued tokens so the next authenticated call
// answers 401, the way an expired session behaves.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	s.tokens = make(map[string]string)
	s.mu.Unlock()
}

// SeedUser registers an account without going through signup.
func (s *Server) SeedUser(email, password, username string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &userRecord{Email: email, Password: password, Username: username, Role: role, StoreID: uuid.New()}
}

func (s *Server) SeedProduct(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

// SeedCart puts a line straight into a user's server-side cart.
func (s *Server) SeedCart(email string, productID uuid.UUID, quantity uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[email] == nil {
		s.carts[email] = make(map[uuid.UUID]*cartLine)
	}
	s.nextLine++
	s.carts[email][productID] = &cartLine{ID: s.nextLine, ProductID: productID, Quantity: quantity}
}

// CartOf is server truth for assertions.
func (s *Server) CartOf(email string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartItemsLocked(email)
}

// Orders returns every checkout the server accepted.
func (s *Server) Orders() []ReceivedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReceivedOrder, len(s.orders))
	copy(out, s.orders)
	return out
}

// SeedResetToken registers a password-reset token for an account.
func (s *Server) SeedResetToken(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = email
}

// PushStock broadcasts a stock update to every connected feed client.
func (s *Server) PushStock(update models.StockUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		if err := c.WriteJSON(update); err != nil {
			c.Close()
			delete(s.conns, c)
		}
	}
}

func (s *Server) issueToken(u *userRecord) string {
	claims := jwt.MapClaims{
		"sub":  u.Email,
		"role": string(u.Role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString(s.secret)
	s.tokens[signed] = u.Email
	return signed
}

// authed resolves the bearer token to a user, mirroring the production
// middleware: missing, unknown or revoked tokens all answer 401.
func (s *Server) authed(c echo.Context) (*userRecord, bool) {
	header := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	s.mu.Lock()
	email, ok := s.tokens[raw]
	u := s.users[email]
	s.mu.Unlock()
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

func (s *Server) cartItemsLocked(email string) []models.CartItem {
	lines := s.carts[email]
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		p := s.products[line.ProductID]
		if p == nil {
			continue
		}
		items = append(items, models.CartItem{
			ID:                line.ID,
			ProductID:         line.ProductID,
			ProductName:       p.Name,
			ImageURL:          p.ImageURL,
			UnitPrice:         p.Price,
			Quantity:          line.Quantity,
			AvailableQuantity: p.Quantity,
		})
	}
	return items
}
