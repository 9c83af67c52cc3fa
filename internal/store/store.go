package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopishop/client-go/internal/models"
)

// Store is the per-device persisted state: the session plus the cart and
// wishlist mirrors and the latest order. It is a cache of server truth, not
// a source of truth, and is purged wholesale on logout or token rejection.
type Store struct {
	db *gorm.DB
}

type sessionRow struct {
	ID        uint   `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UserID    string
	Username  string
	Email     string
	Role      string `gorm:"not null"`
	StoreID   string
	StoreName string
}

func (sessionRow) TableName() string { return "session" }

type cartRow struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	LineID            uint   `gorm:"not null"`
	ProductID         string `gorm:"uniqueIndex;not null"`
	ProductName       string
	ImageURL          string
	UnitPrice         decimal.Decimal `gorm:"type:text"`
	Quantity          uint            `gorm:"default:1;check:quantity>0"`
	AvailableQuantity uint
}

func (cartRow) TableName() string { return "cart_items" }

type wishlistRow struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ProductID   string `gorm:"uniqueIndex;not null"`
	ProductName string
	ImageURL    string
	UnitPrice   decimal.Decimal `gorm:"type:text"`
}

func (wishlistRow) TableName() string { return "wishlist_items" }

type orderRow struct {
	ID              uint   `gorm:"primaryKey"`
	OrderID         string `gorm:"not null"`
	Message         string
	ShippingAddress string
	DiscountPrice   decimal.Decimal `gorm:"type:text"`
}

func (orderRow) TableName() string { return "latest_order" }

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.AutoMigrate(&sessionRow{}, &cartRow{}, &wishlistRow{}, &orderRow{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveSession(sess models.Session) error {
	row := sessionRow{
		ID:       1,
		Token:    sess.Token,
		UserID:   sess.UserID,
		Username: sess.Username,
		Email:    sess.Email,
		Role:     string(sess.Role),
	}
	if sess.Store != nil {
		row.StoreID = sess.Store.ID.String()
		row.StoreName = sess.Store.Name
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", 1).Delete(&sessionRow{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

// LoadSession returns the persisted session, if any.
func (s *Store) LoadSession() (models.Session, bool, error) {
	var row sessionRow
	if err := s.db.First(&row, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Session{}, false, nil
		}
		return models.Session{}, false, err
	}
	sess := models.Session{
		Token:    row.Token,
		UserID:   row.UserID,
		Username: row.Username,
		Email:    row.Email,
		Role:     models.Role(row.Role),
	}
	if row.StoreID != "" {
		id, err := uuid.Parse(row.StoreID)
		if err == nil {
			sess.Store = &models.StoreRef{ID: id, Name: row.StoreName}
		}
	}
	return sess, true, nil
}

// ReplaceCart swaps the persisted cart mirror for the given server state.
func (s *Store) ReplaceCart(items []models.CartItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&cartRow{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			row := cartRow{
				LineID:            it.ID,
				ProductID:         it.ProductID.String(),
				ProductName:       it.ProductName,
				ImageURL:          it.ImageURL,
				UnitPrice:         it.UnitPrice,
				Quantity:          it.Quantity,
				AvailableQuantity: it.AvailableQuantity,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadCart() ([]models.CartItem, error) {
	var rows []cartRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ProductID)
		if err != nil {
			continue
		}
		items = append(items, models.CartItem{
			ID:                row.LineID,
			ProductID:         id,
			ProductName:       row.ProductName,
			ImageURL:          row.ImageURL,
			UnitPrice:         row.UnitPrice,
			Quantity:          row.Quantity,
			AvailableQuantity: row.AvailableQuantity,
		})
	}
	return items, nil
}

func (s *Store) ReplaceWishlist(items []models.WishlistItem) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&wishlistRow{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			row := wishlistRow{
				ProductID:   it.ProductID.String(),
				ProductName: it.ProductName,
				ImageURL:    it.ImageURL,
				UnitPrice:   it.UnitPrice,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) LoadWishlist() ([]models.WishlistItem, error) {
	var rows []wishlistRow
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]models.WishlistItem, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ProductID)
		if err != nil {
			continue
		}
		items = append(items, models.WishlistItem{
			ProductID:   id,
			ProductName: row.ProductName,
			ImageURL:    row.ImageURL,
			UnitPrice:   row.UnitPrice,
		})
	}
	return items, nil
}

func (s *Store) SaveLatestOrder(order models.LatestOrder) error {
	row := orderRow{
		ID:              1,
		OrderID:         order.OrderID.String(),
		Message:         order.Message,
		ShippingAddress: order.ShippingAddress,
		DiscountPrice:   order.DiscountPrice,
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", 1).Delete(&orderRow{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
}

func (s *Store) LoadLatestOrder() (models.LatestOrder, bool, error) {
	var row orderRow
	if err := s.db.First(&row, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LatestOrder{}, false, nil
		}
		return models.LatestOrder{}, false, err
	}
	id, err := uuid.Parse(row.OrderID)
	if err != nil {
		return models.LatestOrder{}, false, fmt.Errorf("corrupt order id: %w", err)
	}
	return models.LatestOrder{
		OrderID:         id,
		Message:         row.Message,
		ShippingAddress: row.ShippingAddress,
		DiscountPrice:   row.DiscountPrice,
	}, true, nil
}

// Purge drops everything. Called on logout and on token rejection so a later
// login can never see another user's state.
func (s *Store) Purge() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&sessionRow{}, &cartRow{}, &wishlistRow{}, &orderRow{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
