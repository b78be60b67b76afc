package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"supplysphere/internal/core/cache"
	"supplysphere/internal/domain"
)

type SupplierSummary struct {
	Products      map[domain.ProductStatus]int64      `json:"products"`
	TotalProducts int64                               `json:"totalProducts"`
	TotalStock    int64                               `json:"totalStock"`
	Verifications map[domain.VerificationStatus]int64 `json:"verifications"`
	Shipments     map[domain.ShipmentStatus]int64     `json:"shipments"`
	Orders        map[domain.OrderStatus]int64        `json:"orders"`
}

type VendorSummary struct {
	Verifications map[domain.VerificationStatus]int64 `json:"verifications"`
	Total         int64                               `json:"total"`
	SuccessRate   float64                             `json:"successRate"`
	Orders        map[domain.OrderStatus]int64        `json:"orders"`
	TotalSpent    decimal.Decimal                     `json:"totalSpent"`
}

type AnalystSummary struct {
	Suppliers   int64   `json:"suppliers"`
	Vendors     int64   `json:"vendors"`
	Products    int64   `json:"products"`
	TotalStock  int64   `json:"totalStock"`
	SuccessRate float64 `json:"verificationSuccessRate"`
}

type Summary struct {
	Role        domain.Role      `json:"role"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Supplier    *SupplierSummary `json:"supplier,omitempty"`
	Vendor      *VendorSummary   `json:"vendor,omitempty"`
	Analyst     *AnalystSummary  `json:"analyst,omitempty"`
	Admin       *Overview        `json:"admin,omitempty"`
}

type DashboardService struct {
	products      domain.ProductRepository
	verifications domain.VerificationRepository
	shipments     domain.ShipmentRepository
	orders        domain.OrderRepository
	users         *UserService
	cache         *cache.Cache
	ttl           time.Duration
	now           func() time.Time
}

func NewDashboardService(
	products domain.ProductRepository,
	verifications domain.VerificationRepository,
	shipments domain.ShipmentRepository,
	orders domain.OrderRepository,
	users *UserService,
	c *cache.Cache,
	ttl time.Duration,
) *DashboardService {
	if c == nil {
		c = cache.New(nil, "")
	}
	return &DashboardService{
		products:      products,
		verifications: verifications,
		shipments:     shipments,
		orders:        orders,
		users:         users,
		cache:         c,
		ttl:           ttl,
		now:           time.Now,
	}
}

func CacheKey(u *domain.User) string { return cacheKey(u.Role, u.ID) }

func cacheKey(r domain.Role, id string) string { return fmt.Sprintf("dashboard:%s:%s", r, id) }

// Summary 按 (role,user) 缓存
func (s *DashboardService) Summary(ctx context.Context, u *domain.User) (*Summary, error) {
	return cache.GetOrLoadJSON(s.cache, ctx, CacheKey(u), s.ttl, func(ctx context.Context) (*Summary, error) {
		return s.build(ctx, u)
	})
}

func (s *DashboardService) Invalidate(ctx context.Context, u *domain.User) error {
	return s.cache.Invalidate(ctx, CacheKey(u))
}

// InvalidateOrder 订单变动影响采购方与供应商两份摘要
func (s *DashboardService) InvalidateOrder(ctx context.Context, vendorID, supplierID string) error {
	return s.cache.Invalidate(ctx, cacheKey(domain.RoleVendor, vendorID), cacheKey(domain.RoleSupplier, supplierID))
}

// InvalidateVerification 核验影响核验人与产品所属供应商两份摘要
func (s *DashboardService) InvalidateVerification(ctx context.Context, verifier *domain.User, v *domain.Verification) error {
	keys := []string{CacheKey(verifier)}
	if v.ProductOwnerID != "" {
		keys = append(keys, cacheKey(domain.RoleSupplier, v.ProductOwnerID))
	}
	return s.cache.Invalidate(ctx, keys...)
}

func successRate(c map[domain.VerificationStatus]int64) (int64, float64) {
	var total int64
	for _, n := range c {
		total += n
	}
	if total == 0 {
		return 0, 0
	}
	rate := float64(c[domain.VerificationVerified]) * 100 / float64(total)
	return total, math.Round(rate*10) / 10
}

func (s *DashboardService) build(ctx context.Context, u *domain.User) (*Summary, error) {
	out := &Summary{Role: u.Role, GeneratedAt: s.now().UTC()}
	switch u.Role {
	case domain.RoleSupplier:
		byStatus, stock, err := s.products.CountByStatus(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count products: %w", err)
		}
		vc, err := s.verifications.CountByStatus(ctx, domain.VerificationFilter{OwnerID: u.ID})
		if err != nil {
			return nil, fmt.Errorf("count verifications: %w", err)
		}
		sc, err := s.shipments.CountByStatus(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count shipments: %w", err)
		}
		oc, err := s.orders.CountByStatus(ctx, domain.OrderFilter{SupplierID: u.ID})
		if err != nil {
			return nil, fmt.Errorf("count orders: %w", err)
		}
		sum := &SupplierSummary{Products: byStatus, TotalStock: stock, Verifications: vc, Shipments: sc, Orders: oc}
		for _, n := range byStatus {
			sum.TotalProducts += n
		}
		out.Supplier = sum

	case domain.RoleVendor:
		vc, err := s.verifications.CountByStatus(ctx, domain.VerificationFilter{VerifierID: u.ID})
		if err != nil {
			return nil, fmt.Errorf("count verifications: %w", err)
		}
		oc, err := s.orders.CountByStatus(ctx, domain.OrderFilter{VendorID: u.ID})
		if err != nil {
			return nil, fmt.Errorf("count orders: %w", err)
		}
		spent, err := s.orders.Spent(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("sum orders: %w", err)
		}
		total, rate := successRate(vc)
		out.Vendor = &VendorSummary{Verifications: vc, Total: total, SuccessRate: rate, Orders: oc, TotalSpent: spent}

	case domain.RoleAnalyst:
		o, err := s.users.Overview(ctx)
		if err != nil {
			return nil, err
		}
		byStatus, stock, err := s.products.CountByStatus(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("count products: %w", err)
		}
		vc, err := s.verifications.CountByStatus(ctx, domain.VerificationFilter{})
		if err != nil {
			return nil, fmt.Errorf("count verifications: %w", err)
		}
		a := &AnalystSummary{
			Suppliers:  o.RoleDistribution[domain.RoleSupplier],
			Vendors:    o.RoleDistribution[domain.RoleVendor],
			TotalStock: stock,
		}
		for _, n := range byStatus {
			a.Products += n
		}
		_, a.SuccessRate = successRate(vc)
		out.Analyst = a

	case domain.RoleAdmin:
		o, err := s.users.Overview(ctx)
		if err != nil {
			return nil, err
		}
		out.Admin = o

	default:
		return nil, domain.ErrForbidden
	}
	return out, nil
}
