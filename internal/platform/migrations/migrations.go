package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&escrowRecord{},
		&productRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
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

// Escrow schema mirrors the orders Postgres adapter. The unique order_id
// index enforces at most one hold per order.
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

// Product schema mirrors the catalog Postgres adapter.
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
