package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders and escrows in PostgreSQL using GORM. State
// transitions are conditional UPDATEs guarded by the expected status, so
// idempotency is a designed property rather than a constraint violation.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID          int64      `gorm:"primaryKey;column:id"`
	Reference   string     `gorm:"column:reference;uniqueIndex"`
	ProductID   int64      `gorm:"column:product_id;index:idx_orders_product_status"`
	BuyerID     int64      `gorm:"column:buyer_id;index"`
	SellerID    int64      `gorm:"column:seller_id;index"`
	Price       int64      `gorm:"column:price"`
	DeliveryFee int64      `gorm:"column:delivery_fee"`
	Status      string     `gorm:"column:status;type:varchar(32);index:idx_orders_product_status"`
	ReceivedAt  *time.Time `gorm:"column:received_at;index"`
	Satisfied   bool       `gorm:"column:satisfied"`
	CreatedAt   time.Time  `gorm:"column:created_at;index"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type escrowRecord struct {
	ID                   int64      `gorm:"primaryKey;column:id"`
	OrderID              int64      `gorm:"column:order_id;uniqueIndex"`
	Amount               int64      `gorm:"column:amount"`
	Currency             string     `gorm:"column:currency;type:varchar(8)"`
	Status               string     `gorm:"column:status;type:varchar(16);index"`
	GatewayTransactionID string     `gorm:"column:gateway_transaction_id"`
	ReleasedAt           *time.Time `gorm:"column:released_at"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
}

func (escrowRecord) TableName() string { return "escrows" }

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toOrderRecord(order)
	record.ID = 0
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "reference = ?", reference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(records), nil
}

func (r *Repository) ListPage(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(records), nil
}

func (r *Repository) HasOrderForProduct(ctx context.Context, productID int64, statuses []domain.Status) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("product_id = ? AND status IN ?", productID, values).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, from, to domain.Status) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND status = ?", orderID, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, r.reportMissing(ctx, orderID)
	}
	return true, nil
}

// MarkPaid flips PENDING to PAID and inserts the HELD escrow inside one
// transaction. A concurrent webhook/verify race leaves exactly one winner;
// the loser sees RowsAffected 0 and no escrow insert happens for it.
func (r *Repository) MarkPaid(ctx context.Context, orderID int64, escrow *domain.Escrow) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", orderID, string(domain.StatusPending)).
			Updates(map[string]any{"status": string(domain.StatusPaid), "updated_at": gorm.Expr("NOW()")})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		record := toEscrowRecord(escrow)
		record.ID = 0
		record.OrderID = orderID
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, r.reportMissing(ctx, orderID)
	}
	return true, nil
}

func (r *Repository) MarkDelivered(ctx context.Context, orderID int64, receivedAt time.Time) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND status = ?", orderID, string(domain.StatusShipped)).
		Updates(map[string]any{
			"status":      string(domain.StatusDelivered),
			"received_at": receivedAt,
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, r.reportMissing(ctx, orderID)
	}
	return true, nil
}

// Complete flips DELIVERED to COMPLETED+satisfied and releases the held
// escrow inside one transaction, mirroring MarkPaid. A partial failure rolls
// both writes back, leaving the order DELIVERED for the next sweep tick.
func (r *Repository) Complete(ctx context.Context, orderID int64, releasedAt time.Time) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&orderRecord{}).
			Where("id = ? AND status = ?", orderID, string(domain.StatusDelivered)).
			Updates(map[string]any{
				"status":     string(domain.StatusCompleted),
				"satisfied":  true,
				"updated_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		release := tx.Model(&escrowRecord{}).
			Where("order_id = ? AND status = ?", orderID, string(domain.EscrowHeld)).
			Updates(map[string]any{
				"status":      string(domain.EscrowReleased),
				"released_at": releasedAt,
				"updated_at":  gorm.Expr("NOW()"),
			})
		if release.Error != nil {
			return release.Error
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, r.reportMissing(ctx, orderID)
	}
	return true, nil
}

func (r *Repository) GetEscrowByOrderID(ctx context.Context, orderID int64) (*domain.Escrow, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record escrowRecord
	if err := r.db.WithContext(ctx).First(&record, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", string(domain.StatusPending), cutoff).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(records), nil
}

func (r *Repository) ListUnsatisfiedReceivedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []orderRecord
	err := r.db.WithContext(ctx).
		Where("satisfied = FALSE AND received_at IS NOT NULL AND received_at <= ?", cutoff).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(records), nil
}

// reportMissing distinguishes "guard failed" from "order absent" after a
// zero-row conditional write.
func (r *Repository) reportMissing(ctx context.Context, orderID int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toOrderRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:          order.ID,
		Reference:   order.Reference,
		ProductID:   order.ProductID,
		BuyerID:     order.BuyerID,
		SellerID:    order.SellerID,
		Price:       order.Price,
		DeliveryFee: order.DeliveryFee,
		Status:      string(order.Status),
		ReceivedAt:  order.ReceivedAt,
		Satisfied:   order.Satisfied,
	}
}

func (rec orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:          rec.ID,
		Reference:   rec.Reference,
		ProductID:   rec.ProductID,
		BuyerID:     rec.BuyerID,
		SellerID:    rec.SellerID,
		Price:       rec.Price,
		DeliveryFee: rec.DeliveryFee,
		Status:      domain.Status(rec.Status),
		ReceivedAt:  rec.ReceivedAt,
		Satisfied:   rec.Satisfied,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toEscrowRecord(escrow *domain.Escrow) escrowRecord {
	return escrowRecord{
		ID:                   escrow.ID,
		OrderID:              escrow.OrderID,
		Amount:               escrow.Amount,
		Currency:             escrow.Currency,
		Status:               string(escrow.Status),
		GatewayTransactionID: escrow.GatewayTransactionID,
		ReleasedAt:           escrow.ReleasedAt,
	}
}

func (rec escrowRecord) toDomain() *domain.Escrow {
	return &domain.Escrow{
		ID:                   rec.ID,
		OrderID:              rec.OrderID,
		Amount:               rec.Amount,
		Currency:             rec.Currency,
		Status:               domain.EscrowStatus(rec.Status),
		GatewayTransactionID: rec.GatewayTransactionID,
		ReleasedAt:           rec.ReleasedAt,
		CreatedAt:            rec.CreatedAt,
		UpdatedAt:            rec.UpdatedAt,
	}
}

func toDomainSlice(records []orderRecord) []*domain.Order {
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders
}
