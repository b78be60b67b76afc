package repo

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *UserRepo) first(ctx context.Context, q string, arg any) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, q, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) List(ctx context.Context, f domain.UserFilter) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&user.UserModel{})
	if f.WithDeleted {
		tx = tx.Unscoped()
	}
	if f.Q != "" {
		p := like(f.Q)
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", p, p)
	}
	if f.Role != "" {
		tx = tx.Where("role = ?", string(f.Role))
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit := page(f.Offset, f.Limit)
	var rows []user.UserModel
	if err := tx.Offset(offset).Limit(limit).Order("created_at desc").Order("id").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// userColumns Update 未指定列时写入的可变列（不含 email/password_hash/deleted_at）
var userColumns = []string{"name", "role", "status", "theme", "notifications", "department", "permissions", "last_login_at"}

// Update 只写指定列，且只命中未删除的行；0 行即 ErrNotFound
func (r *UserRepo) Update(ctx context.Context, u *domain.User, columns ...string) error {
	if len(columns) == 0 {
		columns = userColumns
	}
	u.UpdatedAt = time.Now().UTC()
	m := user.FromDomain(u)
	res := r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("id = ?", u.ID).
		Select(append(slices.Clone(columns), "updated_at")).
		Updates(m)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return domain.ErrEmailTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.UserModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountBy 按角色/状态聚合（不含已删除）
func (r *UserRepo) CountBy(ctx context.Context) (map[domain.Role]int64, map[domain.Status]int64, error) {
	var byRole, byStatus []countRow
	db := r.db.WithContext(ctx).Model(&user.UserModel{})
	if err := db.Select("role AS k, COUNT(*) AS n").Group("role").Scan(&byRole).Error; err != nil {
		return nil, nil, err
	}
	db = r.db.WithContext(ctx).Model(&user.UserModel{})
	if err := db.Select("status AS k, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, nil, err
	}
	roles := make(map[domain.Role]int64, len(domain.Roles))
	for _, x := range domain.Roles {
		roles[x] = 0
	}
	for _, x := range byRole {
		roles[domain.Role(x.K)] = x.N
	}
	statuses := map[domain.Status]int64{domain.StatusActive: 0, domain.StatusInactive: 0, domain.StatusSuspended: 0}
	for _, x := range byStatus {
		statuses[domain.Status(x.K)] = x.N
	}
	return roles, statuses, nil
}
