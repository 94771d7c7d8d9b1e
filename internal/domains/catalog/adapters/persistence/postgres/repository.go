package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists catalog products in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type productRecord struct {
	ID            int64          `gorm:"primaryKey;column:id"`
	SellerID      int64          `gorm:"column:seller_id;index"`
	Name          string         `gorm:"column:name"`
	Description   string         `gorm:"column:description"`
	Price         int64          `gorm:"column:price"`
	DeliveryFee   int64          `gorm:"column:delivery_fee"`
	Condition     string         `gorm:"column:condition"`
	LocationState string         `gorm:"column:location_state"`
	Kind          string         `gorm:"column:kind;type:varchar(32)"`
	Quantity      int            `gorm:"column:quantity"`
	Active        bool           `gorm:"column:active;index"`
	OutOfStock    bool           `gorm:"column:out_of_stock"`
	Images        pq.StringArray `gorm:"column:images;type:text[]"`
	Videos        pq.StringArray `gorm:"column:videos;type:text[]"`
	CreatedAt     time.Time      `gorm:"column:created_at;index"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	record := toRecord(product)
	if record.ID == 0 {
		if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
			return nil, err
		}
		return record.toDomain(), nil
	}
	if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

// ApplyDelivery locks the product row, applies the decrement-or-disable
// rule, and writes the result in the same transaction. Concurrent delivery
// confirmations on the same multi-unit product serialize on the row lock.
func (r *Repository) ApplyDelivery(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var updated *domain.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record productRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		product := record.toDomain()
		product.ApplyDelivery()
		result := tx.Model(&productRecord{}).Where("id = ?", id).Updates(map[string]any{
			"quantity":     product.Quantity,
			"active":       product.Active,
			"out_of_stock": product.OutOfStock,
			"updated_at":   gorm.Expr("NOW()"),
		})
		if result.Error != nil {
			return result.Error
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func toRecord(product *domain.Product) productRecord {
	return productRecord{
		ID:            product.ID,
		SellerID:      product.SellerID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		DeliveryFee:   product.DeliveryFee,
		Condition:     product.Condition,
		LocationState: product.LocationState,
		Kind:          string(product.Kind),
		Quantity:      product.Quantity,
		Active:        product.Active,
		OutOfStock:    product.OutOfStock,
		Images:        pq.StringArray(product.Images),
		Videos:        pq.StringArray(product.Videos),
	}
}

func (rec productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:            rec.ID,
		SellerID:      rec.SellerID,
		Name:          rec.Name,
		Description:   rec.Description,
		Price:         rec.Price,
		DeliveryFee:   rec.DeliveryFee,
		Condition:     rec.Condition,
		LocationState: rec.LocationState,
		Kind:          domain.Kind(rec.Kind),
		Quantity:      rec.Quantity,
		Active:        rec.Active,
		OutOfStock:    rec.OutOfStock,
		Images:        []string(rec.Images),
		Videos:        []string(rec.Videos),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
