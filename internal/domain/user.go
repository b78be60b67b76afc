package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleSupplier Role = "supplier"
	RoleVendor   Role = "vendor"
	RoleAnalyst  Role = "analyst"
	RoleAdmin    Role = "admin"
)

// Roles 固定顺序（统计/展示用）
var Roles = []Role{RoleSupplier, RoleVendor, RoleAnalyst, RoleAdmin}

func (r Role) Valid() bool {
	for _, x := range Roles {
		if r == x {
			return true
		}
	}
	return false
}

// Permissions 角色默认权限
func (r Role) Permissions() []string {
	switch r {
	case RoleSupplier:
		return []string{"products:read", "products:write", "shipments:read", "shipments:write"}
	case RoleVendor:
		return []string{"orders:read", "orders:write", "verification:read", "verification:write"}
	case RoleAnalyst:
		return []string{"analytics:read", "reports:read", "reports:write", "market:read"}
	case RoleAdmin:
		return []string{"*"}
	}
	return []string{}
}

type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive || s == StatusSuspended
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
}

// DefaultPreferences 注册用户默认偏好
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, Notifications: true}
}

func ValidTheme(t string) bool { return t == ThemeLight || t == ThemeDark }

type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	PasswordHash string      `json:"-"`
	Role         Role        `json:"role"`
	Status       Status      `json:"status"`
	Preferences  Preferences `json:"preferences"`
	Department   string      `json:"department,omitempty"`
	Permissions  []string    `json:"permissions"`
	LastLoginAt  *time.Time  `json:"lastLogin,omitempty"`
	CreatedAt    time.Time   `json:"createdDate"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	DeletedAt    *time.Time  `json:"-"`
}

func (u *User) Active() bool { return u.Status == StatusActive && u.DeletedAt == nil }

type UserFilter struct {
	Q           string
	Role        Role
	Status      Status
	WithDeleted bool
	Offset      int
	Limit       int
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, f UserFilter) ([]User, int64, error)
	// Update 只写 columns（为空写全部可变列）；已删除或不存在返回 ErrNotFound
	Update(ctx context.Context, u *User, columns ...string) error
	SoftDelete(ctx context.Context, id string) error
	CountBy(ctx context.Context) (map[Role]int64, map[Status]int64, error)
}
