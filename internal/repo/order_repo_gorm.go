package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/order"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

var _ domain.OrderRepository = (*OrderRepo)(nil)

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var m order.OrderModel
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o := m.ToDomain()
	return &o, nil
}

func (r *OrderRepo) scope(ctx context.Context, f domain.OrderFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&order.OrderModel{})
	if f.VendorID != "" {
		tx = tx.Where("owner_id = ?", f.VendorID)
	}
	if f.SupplierID != "" {
		tx = tx.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}
	if f.Q != "" {
		p := like(f.Q)
		tx = tx.Where("LOWER(product_name) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(id) LIKE ?", p, p, p)
	}
	return tx
}

func (r *OrderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	tx := r.scope(ctx, f)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(f.Offset, f.Limit)
	var rows []order.OrderModel
	if err := tx.Offset(offset).Limit(limit).Order("order_date desc").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, total, nil
}

func (r *OrderRepo) CountByStatus(ctx context.Context, f domain.OrderFilter) (map[domain.OrderStatus]int64, error) {
	f.Status = ""
	var rows []countRow
	if err := r.scope(ctx, f).Select("status AS k, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[domain.OrderStatus]int64, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		out[s] = 0
	}
	for _, x := range rows {
		out[domain.OrderStatus(x.K)] = x.N
	}
	return out, nil
}

func (r *OrderRepo) Spent(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&order.OrderModel{}).
		Where("owner_id = ? AND status <> ?", vendorID, string(domain.OrderCancelled)).
		Select("SUM(total_price)").Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Transition 以 status = from 作为写入条件，并发改动时返回 ErrConflict
func (r *OrderRepo) Transition(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	set := map[string]any{"status": string(to), "updated_at": at.UTC()}
	if to == domain.OrderDelivered {
		set["actual_delivery"] = at.UTC()
	}
	res := r.db.WithContext(ctx).Model(&order.OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", domain.ErrConflict, id, from)
	}
	return nil
}
