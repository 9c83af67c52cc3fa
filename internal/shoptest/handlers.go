package shoptest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shopishop/client-go/internal/models"
)

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[req.Email]
	if u == nil || u.Password != req.Password {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
	}
	return c.JSON(http.StatusOK, s.authPayload(u))
}

func (s *Server) signup(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[req.Email] != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "email taken"})
	}
	u := &userRecord{Email: req.Email, Password: req.Password, Username: req.Username, Role: models.RoleCustomer}
	s.users[req.Email] = u
	return c.JSON(http.StatusOK, s.authPayload(u))
}

func (s *Server) authPayload(u *userRecord) map[string]any {
	payload := map[string]any{
		"token":    s.issueToken(u),
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
	}
	if u.Role == models.RoleMerchant {
		payload["storeDetails"] = models.StoreRef{ID: u.StoreID, Name: u.Username + "'s store"}
	}
	return payload
}

func (s *Server) validate(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Expired or invalid token"})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":   "Token is valid",
		"userEmail": u.Email,
		"role":      string(u.Role),
	})
}

func (s *Server) logout(c echo.Context) error {
	header := c.Request().Header.Get("Authorization")
	s.mu.Lock()
	delete(s.tokens, headerToken(header))
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func headerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) {
		return header[len(prefix):]
	}
	return ""
}

func (s *Server) forgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "email required"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "reset link sent"})
}

func (s *Server) verifyResetToken(c echo.Context) error {
	s.mu.Lock()
	_, ok := s.resetTokens[c.QueryParam("token")]
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "unknown reset token"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "token valid"})
}

func (s *Server) resetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resetTokens[req.Token]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "unknown reset token"})
	}
	if u := s.users[email]; u != nil {
		u.Password = req.NewPassword
	}
	delete(s.resetTokens, req.Token)
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

func (s *Server) getCart(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	s.mu.Lock()
	items := s.cartItemsLocked(u.Email)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, items)
}

func (s *Server) addToCart(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	var req struct {
		ProductID uuid.UUID `json:"productId"`
		Quantity  int       `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == uuid.Nil || req.Quantity == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "productId and quantity required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[req.ProductID]
	if p == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "product not found"})
	}
	if s.carts[u.Email] == nil {
		s.carts[u.Email] = make(map[uuid.UUID]*cartLine)
	}
	line := s.carts[u.Email][req.ProductID]

	current := 0
	if line != nil {
		current = int(line.Quantity)
	}
	next := current + req.Quantity
	if next > int(p.Quantity) {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "not enough stock"})
	}
	if next <= 0 {
		delete(s.carts[u.Email], req.ProductID)
		return c.JSON(http.StatusOK, map[string]string{"message": "item removed"})
	}
	if line == nil {
		s.nextLine++
		line = &cartLine{ID: s.nextLine, ProductID: req.ProductID}
		s.carts[u.Email][req.ProductID] = line
	}
	line.Quantity = uint(next)
	return c.JSON(http.StatusOK, map[string]any{"productId": req.ProductID, "quantity": line.Quantity})
}

func (s *Server) removeFromCart(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid id"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[u.Email] == nil || s.carts[u.Email][id] == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "item not found"})
	}
	delete(s.carts[u.Email], id)
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
}

func (s *Server) clearCart(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	s.mu.Lock()
	delete(s.carts, u.Email)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]string{"message": "cart cleared"})
}

func (s *Server) checkout(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	var req struct {
		ShippingAddress string            `json:"shippingAddress"`
		City            string            `json:"city"`
		ContactNumber   string            `json:"contactNumber"`
		Cart            []models.CartItem `json:"cart"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.carts[u.Email]) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "no items in cart"})
	}
	order := ReceivedOrder{
		OrderID:         uuid.New(),
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		ContactNumber:   req.ContactNumber,
		Cart:            req.Cart,
	}
	s.orders = append(s.orders, order)
	delete(s.carts, u.Email)
	return c.JSON(http.StatusOK, map[string]any{
		"orderId": order.OrderID,
		"message": "Order created successfully",
	})
}

func (s *Server) getWishlist(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	s.mu.Lock()
	items := make([]models.WishlistItem, 0, len(s.wishlists[u.Email]))
	for _, it := range s.wishlists[u.Email] {
		items = append(items, it)
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, items)
}

func (s *Server) addToWishlist(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	var item models.WishlistItem
	if err := c.Bind(&item); err != nil || item.ProductID == uuid.Nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "productId required"})
	}
	s.mu.Lock()
	if s.wishlists[u.Email] == nil {
		s.wishlists[u.Email] = make(map[uuid.UUID]models.WishlistItem)
	}
	s.wishlists[u.Email][item.ProductID] = item
	s.mu.Unlock()
	return c.JSON(http.StatusOK, item)
}

func (s *Server) removeFromWishlist(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid id"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wishlists[u.Email] == nil || !containsWishlist(s.wishlists[u.Email], id) {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "item not found"})
	}
	delete(s.wishlists[u.Email], id)
	return c.JSON(http.StatusOK, map[string]any{"deleted_item": id})
}

func containsWishlist(m map[uuid.UUID]models.WishlistItem, id uuid.UUID) bool {
	_, ok := m[id]
	return ok
}

func (s *Server) listProducts(c echo.Context) error {
	s.mu.Lock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid id"})
	}
	s.mu.Lock()
	p := s.products[id]
	s.mu.Unlock()
	if p == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "product not found"})
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok || (u.Role != models.RoleMerchant && u.Role != models.RoleSuperAdmin) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	var p models.Product
	if err := c.Bind(&p); err != nil || p.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid product"})
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.StoreID = u.StoreID
	s.mu.Lock()
	s.products[p.ID] = &p
	s.mu.Unlock()
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updateQuantity(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok || (u.Role != models.RoleMerchant && u.Role != models.RoleSuperAdmin) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid id"})
	}
	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid body"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	if p == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "product not found"})
	}
	p.Quantity = req.Quantity
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProduct(c echo.Context) error {
	u, ok := s.authed(c)
	if !ok || (u.Role != models.RoleMerchant && u.Role != models.RoleSuperAdmin) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "invalid id"})
	}
	s.mu.Lock()
	delete(s.products, id)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) stockSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	// Reader drains control frames until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
	return nil
}
