package nav

import (
	"path"
	"strings"

	"supplysphere/internal/domain"
)

const (
	LoginPath     = "/auth/login"
	RegisterPath  = "/auth/register"
	DashboardRoot = "/dashboard"
)

var dashboards = map[domain.Role]string{
	domain.RoleSupplier: "/dashboard/supplier",
	domain.RoleVendor:   "/dashboard/vendor",
	domain.RoleAnalyst:  "/dashboard/analyst",
	domain.RoleAdmin:    "/dashboard/admin",
}

// DashboardPath 角色首页；未知角色返回 ok=false
func DashboardPath(r domain.Role) (string, bool) {
	p, ok := dashboards[r]
	return p, ok
}

type Decision struct {
	Path     string `json:"path"`
	Redirect string `json:"redirect,omitempty"`
	Allowed  bool   `json:"allowed"`
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func clean(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	// 与浏览器一致：折叠 . / .. 与重复斜杠
	return path.Clean("/" + p)
}

// Resolve 路由守卫：u 为 nil 表示未登录
func Resolve(target string, u *domain.User) Decision {
	p := clean(target)
	d := Decision{Path: p, Allowed: true}

	if u == nil {
		if under(p, DashboardRoot) {
			return Decision{Path: p, Redirect: LoginPath}
		}
		return d
	}

	home, ok := DashboardPath(u.Role)
	if !ok {
		// 角色无效：按未登录处理
		return Resolve(target, nil)
	}
	switch {
	case p == "/" || p == LoginPath || p == RegisterPath || p == DashboardRoot:
		return Decision{Path: p, Redirect: home}
	case under(p, DashboardRoot) && !under(p, home):
		return Decision{Path: p, Redirect: home}
	}
	return d
}

type Item struct {
	Href  string `json:"href"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var menus = map[domain.Role][]Item{
	domain.RoleSupplier: {
		{"/dashboard/supplier", "Overview", "layout-dashboard"},
		{"/dashboard/supplier/products", "Products & Inventory", "package"},
		{"/dashboard/supplier/shipments", "Shipments", "truck"},
		{"/dashboard/supplier/qr-generator", "QR Generator", "qr-code"},
		{"/dashboard/supplier/analytics", "Analytics", "bar-chart-3"},
		{"/dashboard/supplier/settings", "Settings", "settings"},
	},
	domain.RoleVendor: {
		{"/dashboard/vendor", "Overview", "layout-dashboard"},
		{"/dashboard/vendor/search", "Product Search", "search"},
		{"/dashboard/vendor/orders", "Orders & Requests", "shopping-cart"},
		{"/dashboard/vendor/verify", "Verification", "shield"},
		{"/dashboard/vendor/analytics", "Analytics", "bar-chart-3"},
		{"/dashboard/vendor/settings", "Settings", "settings"},
	},
	domain.RoleAnalyst: {
		{"/dashboard/analyst", "Overview", "layout-dashboard"},
		{"/dashboard/analyst/supply-chain", "Supply Chain Analytics", "activity"},
		{"/dashboard/analyst/suppliers", "Supplier Performance", "users"},
		{"/dashboard/analyst/insights", "Market Insights", "bar-chart-3"},
		{"/dashboard/analyst/reports", "Reports", "database"},
		{"/dashboard/analyst/settings", "Settings", "settings"},
	},
	domain.RoleAdmin: {
		{"/dashboard/admin", "Overview", "layout-dashboard"},
		{"/dashboard/admin/users", "User Management", "users"},
		{"/dashboard/admin/logs", "System Logs", "activity"},
		{"/dashboard/admin/analytics", "Platform Analytics", "bar-chart-3"},
		{"/dashboard/admin/blockchain", "Blockchain Monitor", "blocks"},
		{"/dashboard/admin/settings", "Settings", "settings"},
	},
}

// Menu 返回副本，调用方可随意修改
func Menu(r domain.Role) ([]Item, bool) {
	items, ok := menus[r]
	if !ok {
		return []Item{}, false
	}
	return append([]Item(nil), items...), true
}

// CanAccess target 是否落在该角色菜单树内
func CanAccess(r domain.Role, target string) bool {
	p := clean(target)
	for _, it := range menus[r] {
		if under(p, it.Href) {
			return true
		}
	}
	return false
}
