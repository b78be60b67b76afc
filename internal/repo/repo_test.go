package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"supplysphere/internal/core/database"
	"supplysphere/internal/domain"
	"supplysphere/internal/feature/order"
	"supplysphere/internal/feature/product"
	"supplysphere/internal/feature/shipment"
	"supplysphere/pkg/utils"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", utils.NewID())
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func mkUser(email string, role domain.Role) *domain.User {
	return &domain.User{
		ID:          utils.NewID(),
		Email:       email,
		Name:        "User " + email,
		Role:        role,
		Status:      domain.StatusActive,
		Preferences: domain.DefaultPreferences(),
		Permissions: role.Permissions(),
	}
}

func TestUserRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))

	u := mkUser("a@test.com", domain.RoleVendor)
	require.NoError(t, r.Create(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	assert.ErrorIs(t, r.Create(ctx, mkUser("a@test.com", domain.RoleAnalyst)), domain.ErrEmailTaken)

	got, err := r.FindByEmail(ctx, "a@test.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleVendor, got.Role)
	assert.Equal(t, u.Permissions, got.Permissions)

	got.Status = domain.StatusSuspended
	require.NoError(t, r.Update(ctx, got))
	again, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, again.Status)

	_, err = r.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, r.SoftDelete(ctx, u.ID))
	_, err = r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.SoftDelete(ctx, u.ID), domain.ErrNotFound)

	list, total, err := r.List(ctx, domain.UserFilter{WithDeleted: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].DeletedAt)
}

func TestUserRepo_UpdateColumns(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	r := NewUserRepo(db)

	u := mkUser("b@test.com", domain.RoleSupplier)
	require.NoError(t, r.Create(ctx, u))

	// 旧快照只写 last_login_at，不覆盖其间写入的 status
	stale, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	fresh, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	fresh.Status = domain.StatusSuspended
	require.NoError(t, r.Update(ctx, fresh, "status"))

	at := time.Now().UTC().Truncate(time.Second)
	stale.LastLoginAt = &at
	require.NoError(t, r.Update(ctx, stale, "last_login_at"))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, got.Status)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, at.Equal(got.LastLoginAt.UTC()))

	got.Preferences.Notifications = false
	require.NoError(t, r.Update(ctx, got, "theme", "notifications"))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Preferences.Notifications)

	// 已删除的用户不能被 Update 复活
	require.NoError(t, r.SoftDelete(ctx, u.ID))
	stale.Status = domain.StatusActive
	assert.ErrorIs(t, r.Update(ctx, stale, "last_login_at"), domain.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, stale), domain.ErrNotFound)

	_, err = r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var deleted int64
	require.NoError(t, db.Unscoped().Table("users").Where("id = ? AND deleted_at IS NOT NULL", u.ID).Count(&deleted).Error)
	assert.EqualValues(t, 1, deleted)

	assert.ErrorIs(t, r.Update(ctx, mkUser("ghost@test.com", domain.RoleVendor)), domain.ErrNotFound)
}

func TestUserRepo_ListAndCount(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newDB(t))
	for i, role := range []domain.Role{domain.RoleSupplier, domain.RoleSupplier, domain.RoleVendor, domain.RoleAdmin} {
		u := mkUser(fmt.Sprintf("u%d@test.com", i), role)
		if i == 1 {
			u.Status = domain.StatusInactive
		}
		require.NoError(t, r.Create(ctx, u))
	}

	list, total, err := r.List(ctx, domain.UserFilter{Role: domain.RoleSupplier})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, total, err = r.List(ctx, domain.UserFilter{Q: "U3@"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	list, total, err = r.List(ctx, domain.UserFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, list, 1)

	roles, statuses, err := r.CountBy(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, roles[domain.RoleSupplier])
	assert.EqualValues(t, 0, roles[domain.RoleAnalyst])
	assert.EqualValues(t, 3, statuses[domain.StatusActive])
	assert.EqualValues(t, 1, statuses[domain.StatusInactive])
	assert.EqualValues(t, 0, statuses[domain.StatusSuspended])
}

func seedProduct(t *testing.T, db *gorm.DB, owner, batch string, status domain.ProductStatus, stock int) *product.ProductModel {
	t.Helper()
	m := &product.ProductModel{
		ID:             utils.NewID(),
		OwnerID:        owner,
		Name:           "Organic Tomatoes " + batch,
		BatchID:        batch,
		Category:       "Vegetables",
		Supplier:       "Green Farm",
		ProductionDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		ExpiryDate:     time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Status:         string(status),
		Price:          decimal.RequireFromString("4.99"),
		StockLevel:     stock,
	}
	require.NoError(t, m.Prepare())
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	r := NewProductRepo(db)
	p1 := seedProduct(t, db, "s1", "B-001", domain.ProductActive, 10)
	seedProduct(t, db, "s1", "B-002", domain.ProductRecalled, 5)
	seedProduct(t, db, "s2", "C-001", domain.ProductActive, 7)

	got, err := r.FindByQRCode(ctx, " QR-B-001 ")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, got.ID)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("4.99")))

	_, err = r.FindByQRCode(ctx, "QR-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := r.Search(ctx, domain.ProductFilter{OwnerID: "s1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, total, err = r.Search(ctx, domain.ProductFilter{Q: "c-00"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = r.Search(ctx, domain.ProductFilter{Status: domain.ProductActive})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	counts, stock, err := r.CountByStatus(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.ProductActive])
	assert.EqualValues(t, 1, counts[domain.ProductRecalled])
	assert.EqualValues(t, 0, counts[domain.ProductExpired])
	assert.EqualValues(t, 15, stock)

	_, stock, err = r.CountByStatus(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 22, stock)
}

func TestVerificationRepo(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	p := seedProduct(t, db, "s1", "B-001", domain.ProductActive, 1)
	r := NewVerificationRepo(db)

	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	for i, st := range []domain.VerificationStatus{domain.VerificationVerified, domain.VerificationSuspicious} {
		require.NoError(t, r.Create(ctx, &domain.Verification{
			ID: utils.NewID(), ProductID: p.ID, ProductName: p.Name, BatchID: p.BatchID, QRCode: p.QRCode,
			VerificationDate: base.Add(time.Duration(i) * time.Hour), Status: st, VerifierID: "v1", VerifiedBy: "Jane",
		}))
	}
	require.NoError(t, r.Create(ctx, &domain.Verification{
		ID: utils.NewID(), QRCode: "QR-UNKNOWN", VerificationDate: base, Status: domain.VerificationFailed, VerifierID: "v2",
	}))

	list, total, err := r.List(ctx, domain.VerificationFilter{OwnerID: "s1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, domain.VerificationSuspicious, list[0].Status)

	_, total, err = r.List(ctx, domain.VerificationFilter{VerifierID: "v2"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	counts, err := r.CountByStatus(ctx, domain.VerificationFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.VerificationVerified])
	assert.EqualValues(t, 1, counts[domain.VerificationSuspicious])
	assert.EqualValues(t, 1, counts[domain.VerificationFailed])
}

func TestAuditRepo(t *testing.T) {
	ctx := context.Background()
	r := NewAuditRepo(newDB(t))
	now := time.Now().UTC()
	require.NoError(t, r.Create(ctx, &domain.AuditLog{ID: utils.NewID(), UserID: "u1", Action: domain.ActionLogin, Timestamp: now, Status: domain.AuditSuccess}))
	require.NoError(t, r.Create(ctx, &domain.AuditLog{ID: utils.NewID(), UserID: "u1", Action: domain.ActionLoginAttempt, Timestamp: now.Add(time.Second), Status: domain.AuditFailed}))
	require.NoError(t, r.Create(ctx, &domain.AuditLog{ID: utils.NewID(), UserID: "u2", Action: domain.ActionLogout, Timestamp: now, Status: domain.AuditSuccess}))

	list, total, err := r.List(ctx, domain.AuditFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, domain.ActionLoginAttempt, list[0].Action)

	_, total, err = r.List(ctx, domain.AuditFilter{Status: domain.AuditFailed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func seedOrder(t *testing.T, db *gorm.DB, vendor string, p *product.ProductModel, qty int, at time.Time) *order.OrderModel {
	t.Helper()
	m := &order.OrderModel{ID: utils.NewID(), OwnerID: vendor, ProductID: p.ID, Quantity: qty}
	d := p.ToDomain()
	require.NoError(t, m.Place(&d, at))
	require.NoError(t, db.Create(m).Error)
	return m
}

func TestOrderRepo(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	r := NewOrderRepo(db)
	p := seedProduct(t, db, "s1", "B-001", domain.ProductActive, 100)
	q := seedProduct(t, db, "s2", "C-001", domain.ProductActive, 100)
	at := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	o1 := seedOrder(t, db, "v1", p, 10, at)
	o2 := seedOrder(t, db, "v1", q, 2, at.Add(time.Hour))
	seedOrder(t, db, "v2", p, 1, at.Add(2*time.Hour))

	got, err := r.FindByID(ctx, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SupplierID)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("49.9")))
	_, err = r.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, total, err := r.List(ctx, domain.OrderFilter{VendorID: "v1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, o2.ID, list[0].ID)

	_, total, err = r.List(ctx, domain.OrderFilter{SupplierID: "s1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = r.List(ctx, domain.OrderFilter{SupplierID: "s1", Q: "b-001"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	require.NoError(t, r.Transition(ctx, o1.ID, domain.OrderPending, domain.OrderConfirmed, at))
	err = r.Transition(ctx, o1.ID, domain.OrderPending, domain.OrderCancelled, at)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, r.Transition(ctx, o2.ID, domain.OrderPending, domain.OrderCancelled, at))

	counts, err := r.CountByStatus(ctx, domain.OrderFilter{VendorID: "v1", Status: domain.OrderShipped})
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.OrderConfirmed])
	assert.EqualValues(t, 1, counts[domain.OrderCancelled])
	assert.EqualValues(t, 0, counts[domain.OrderPending])

	spent, err := r.Spent(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.RequireFromString("49.9")), spent.String())

	spent, err = r.Spent(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, spent.IsZero())

	require.NoError(t, r.Transition(ctx, o1.ID, domain.OrderConfirmed, domain.OrderShipped, at))
	require.NoError(t, r.Transition(ctx, o1.ID, domain.OrderShipped, domain.OrderDelivered, at.Add(time.Hour)))
	got, err = r.FindByID(ctx, o1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDelivered, got.Status)
	require.NotNil(t, got.ActualDelivery)
}

func TestShipmentRepo_CountByStatus(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	now := time.Now()
	for i, st := range []string{"pending", "in_transit", "in_transit", "delayed"} {
		owner := "s1"
		if i == 3 {
			owner = "s2"
		}
		m := &shipment.ShipmentModel{
			ID: utils.NewID(), OwnerID: owner, ProductID: "p1", Status: st,
			Origin: "California, USA", Destination: "New York, USA", Quantity: 5,
		}
		require.NoError(t, m.Prepare(nil, now))
		require.NoError(t, db.Create(m).Error)
	}

	r := NewShipmentRepo(db)
	counts, err := r.CountByStatus(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.ShipmentPending])
	assert.EqualValues(t, 2, counts[domain.ShipmentInTransit])
	assert.EqualValues(t, 0, counts[domain.ShipmentDelayed])
	assert.Len(t, counts, len(domain.ShipmentStatuses))

	counts, err = r.CountByStatus(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.ShipmentDelayed])
}
