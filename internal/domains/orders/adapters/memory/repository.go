package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-escrow-marketplace/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order/escrow persistence adapter. State
// changes use the same compare-and-set discipline as the Postgres adapter
// so the engine's race guarantees hold in tests and dev fallbacks.
type Repository struct {
	mu           sync.Mutex
	orders       map[int64]*domain.Order
	byReference  map[string]int64
	escrows      map[int64]*domain.Escrow
	nextOrderID  int64
	nextEscrowID int64
}

func NewRepository() *Repository {
	return &Repository{
		orders:      map[int64]*domain.Order{},
		byReference: map[string]int64{},
		escrows:     map[int64]*domain.Escrow{},
	}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byReference[order.Reference]; exists {
		return nil, domain.ErrConflict
	}
	clone := *order
	r.nextOrderID++
	clone.ID = r.nextOrderID
	now := time.Now()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	r.orders[clone.ID] = &clone
	r.byReference[clone.Reference] = clone.ID
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (r *Repository) GetByReference(_ context.Context, reference string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byReference[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *r.orders[id]
	return &clone, nil
}

func (r *Repository) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.BuyerID == userID || order.SellerID == userID {
			clone := *order
			list = append(list, &clone)
		}
	}
	sortNewestFirst(list)
	return list, nil
}

func (r *Repository) ListPage(_ context.Context, offset, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		clone := *order
		all = append(all, &clone)
	}
	sortNewestFirst(all)
	if offset >= len(all) {
		return []*domain.Order{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *Repository) HasOrderForProduct(_ context.Context, productID int64, statuses []domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.ProductID != productID {
			continue
		}
		for _, status := range statuses {
			if order.Status == status {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Repository) UpdateStatus(_ context.Context, orderID int64, from, to domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	return true, nil
}

func (r *Repository) MarkPaid(_ context.Context, orderID int64, escrow *domain.Escrow) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if order.Status != domain.StatusPending {
		return false, nil
	}
	order.Status = domain.StatusPaid
	order.UpdatedAt = time.Now()
	clone := *escrow
	r.nextEscrowID++
	clone.ID = r.nextEscrowID
	clone.OrderID = orderID
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.escrows[orderID] = &clone
	return true, nil
}

func (r *Repository) MarkDelivered(_ context.Context, orderID int64, receivedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if order.Status != domain.StatusShipped {
		return false, nil
	}
	order.Status = domain.StatusDelivered
	at := receivedAt
	order.ReceivedAt = &at
	order.UpdatedAt = time.Now()
	return true, nil
}

// Complete flips DELIVERED to COMPLETED+satisfied and releases the held
// escrow under one lock, matching the Postgres transaction.
func (r *Repository) Complete(_ context.Context, orderID int64, releasedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if order.Status != domain.StatusDelivered {
		return false, nil
	}
	order.Status = domain.StatusCompleted
	order.Satisfied = true
	order.UpdatedAt = time.Now()
	if escrow, held := r.escrows[orderID]; held && escrow.Status == domain.EscrowHeld {
		if err := escrow.Release(releasedAt); err == nil {
			escrow.UpdatedAt = time.Now()
		}
	}
	return true, nil
}

func (r *Repository) GetEscrowByOrderID(_ context.Context, orderID int64) (*domain.Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	escrow, ok := r.escrows[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *escrow
	return &clone, nil
}

func (r *Repository) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.Status == domain.StatusPending && !order.CreatedAt.After(cutoff) {
			clone := *order
			list = append(list, &clone)
		}
	}
	sortNewestFirst(list)
	return list, nil
}

func (r *Repository) ListUnsatisfiedReceivedBefore(_ context.Context, cutoff time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*domain.Order
	for _, order := range r.orders {
		if order.Satisfied || order.ReceivedAt == nil {
			continue
		}
		if !order.ReceivedAt.After(cutoff) {
			clone := *order
			list = append(list, &clone)
		}
	}
	sortNewestFirst(list)
	return list, nil
}

// SeedOrder inserts an order with explicit timestamps; test helper.
func (r *Repository) SeedOrder(order *domain.Order) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	if clone.ID == 0 {
		r.nextOrderID++
		clone.ID = r.nextOrderID
	} else if clone.ID > r.nextOrderID {
		r.nextOrderID = clone.ID
	}
	r.orders[clone.ID] = &clone
	r.byReference[clone.Reference] = clone.ID
	out := clone
	return &out
}

func sortNewestFirst(list []*domain.Order) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
