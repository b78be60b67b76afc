package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/product"
)

type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

var _ domain.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) first(ctx context.Context, q string, arg any) (*domain.Product, error) {
	var m product.ProductModel
	err := r.db.WithContext(ctx).First(&m, q, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := m.ToDomain()
	return &p, nil
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProductRepo) FindByQRCode(ctx context.Context, qr string) (*domain.Product, error) {
	return r.first(ctx, "qr_code = ?", strings.TrimSpace(qr))
}

func (r *ProductRepo) Search(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&product.ProductModel{})
	if f.OwnerID != "" {
		tx = tx.Where("owner_id = ?", f.OwnerID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.Q != "" {
		p := like(f.Q)
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(batch_id) LIKE ? OR LOWER(supplier) LIKE ?", p, p, p)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(f.Offset, f.Limit)
	var rows []product.ProductModel
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Product, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, total, nil
}

// CountByStatus 返回各状态数量与库存合计；ownerID 为空统计全部
func (r *ProductRepo) CountByStatus(ctx context.Context, ownerID string) (map[domain.ProductStatus]int64, int64, error) {
	type row struct {
		K     string
		N     int64
		Stock int64
	}
	tx := r.db.WithContext(ctx).Model(&product.ProductModel{})
	if ownerID != "" {
		tx = tx.Where("owner_id = ?", ownerID)
	}
	var rows []row
	if err := tx.Select("status AS k, COUNT(*) AS n, COALESCE(SUM(stock_level), 0) AS stock").Group("status").Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := map[domain.ProductStatus]int64{domain.ProductActive: 0, domain.ProductExpired: 0, domain.ProductRecalled: 0}
	var stock int64
	for _, x := range rows {
		out[domain.ProductStatus(x.K)] = x.N
		stock += x.Stock
	}
	return out, stock, nil
}
