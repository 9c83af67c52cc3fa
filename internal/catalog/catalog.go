package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shopishop/client-go/internal/clienterr"
	"github.com/shopishop/client-go/internal/models"
	"github.com/shopishop/client-go/internal/session"
	"github.com/shopishop/client-go/pkg/restclient"
)

// Service wraps the catalog read surface and the merchant mutation surface.
// Reads are public; mutations need a MERCHANT or SUPERADMIN session.
type Service struct {
	api      *restclient.Client
	sessions *session.Manager
	log      *slog.Logger
}

func New(api *restclient.Client, sessions *session.Manager, log *slog.Logger) *Service {
	return &Service{api: api, sessions: sessions, log: log.With("component", "catalog")}
}

func (s *Service) Products(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/product/all", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *Service) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var out models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/product/"+id.String(), "", nil, &out); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &out, nil
}

func (s *Service) ProductsPaginated(ctx context.Context, page, size int) ([]models.Product, error) {
	path := "/public/product/paginated?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (s *Service) BestSelling(ctx context.Context, page, size int) ([]models.Product, error) {
	path := "/public/product/best-selling?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, fmt.Errorf("best selling: %w", err)
	}
	return out, nil
}

func (s *Service) BestDeals(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/product/best-deals", "", nil, &out); err != nil {
		return nil, fmt.Errorf("best deals: %w", err)
	}
	return out, nil
}

func (s *Service) Featured(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/product/featured", "", nil, &out); err != nil {
		return nil, fmt.Errorf("featured products: %w", err)
	}
	return out, nil
}

func (s *Service) ProductsByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/product/store/"+storeID.String(), "", nil, &out); err != nil {
		return nil, fmt.Errorf("store products: %w", err)
	}
	return out, nil
}

func (s *Service) ProductsBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/products/section/"+sectionID.String(), "", nil, &out); err != nil {
		return nil, fmt.Errorf("section products: %w", err)
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/category/all", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Service) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var out models.Category
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/category/"+id.String(), "", nil, &out); err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &out, nil
}

func (s *Service) CategoriesBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Category, error) {
	var out []models.Category
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/category/section/"+sectionID.String(), "", nil, &out); err != nil {
		return nil, fmt.Errorf("section categories: %w", err)
	}
	return out, nil
}

func (s *Service) Sections(ctx context.Context) ([]models.Section, error) {
	var out []models.Section
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/sections", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return out, nil
}

func (s *Service) SectionsWithCategories(ctx context.Context) ([]models.Section, error) {
	var out []models.Section
	if err := s.api.DoJSON(ctx, http.MethodGet, "/public/sections-with-categories", "", nil, &out); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return out, nil
}

// merchantToken gates the mutation surface on the session role.
func (s *Service) merchantToken() (string, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return "", clienterr.ErrUnauthenticated
	}
	if sess.Role != models.RoleMerchant && sess.Role != models.RoleSuperAdmin {
		return "", fmt.Errorf("role %s cannot manage products: %w", sess.Role, clienterr.ErrUnauthenticated)
	}
	return sess.Token, nil
}

func (s *Service) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	token, err := s.merchantToken()
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	var out models.Product
	if err := s.api.DoJSON(ctx, http.MethodPost, "/merchant/product/create", token, product, &out); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	token, err := s.merchantToken()
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	var out models.Product
	if err := s.api.DoJSON(ctx, http.MethodPut, "/merchant/product/update/"+product.ID.String(), token, product, &out); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &out, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	token, err := s.merchantToken()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := s.api.DoJSON(ctx, http.MethodDelete, "/merchant/product/delete/"+id.String(), token, nil, nil); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity uint) error {
	token, err := s.merchantToken()
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	body := map[string]uint{"quantity": quantity}
	if err := s.api.DoJSON(ctx, http.MethodPut, "/merchant/product/update-quantity/"+id.String(), token, body, nil); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return nil
}

func (s *Service) ApplyDiscount(ctx context.Context, id uuid.UUID, discount models.Discount) error {
	token, err := s.merchantToken()
	if err != nil {
		return fmt.Errorf("apply discount: %w", err)
	}
	if err := s.api.DoJSON(ctx, http.MethodPost, "/merchant/product/apply-discount/"+id.String(), token, discount, nil); err != nil {
		return fmt.Errorf("apply discount: %w", err)
	}
	return nil
}

func (s *Service) RemoveDiscount(ctx context.Context, id uuid.UUID) error {
	token, err := s.merchantToken()
	if err != nil {
		return fmt.Errorf("remove discount: %w", err)
	}
	if err := s.api.DoJSON(ctx, http.MethodDelete, "/merchant/product/remove-discount/"+id.String(), token, nil, nil); err != nil {
		return fmt.Errorf("remove discount: %w", err)
	}
	return nil
}
