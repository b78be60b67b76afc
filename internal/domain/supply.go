package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductExpired  ProductStatus = "expired"
	ProductRecalled ProductStatus = "recalled"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductExpired || s == ProductRecalled
}

type Product struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	BatchID        string          `json:"batchId"`
	Category       string          `json:"category"`
	Supplier       string          `json:"supplier"`
	ProductionDate time.Time       `json:"productionDate"`
	ExpiryDate     time.Time       `json:"expiryDate"`
	Status         ProductStatus   `json:"status"`
	QRCode         string          `json:"qrCode"`
	Price          decimal.Decimal `json:"price"`
	StockLevel     int             `json:"stockLevel"`
	Certifications []string        `json:"certifications"`
	BlockchainHash string          `json:"blockchainHash"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationFailed     VerificationStatus = "failed"
	VerificationSuspicious VerificationStatus = "suspicious"
)

type Verification struct {
	ID               string             `json:"id"`
	ProductID        string             `json:"productId"`
	ProductOwnerID   string             `json:"productOwnerId,omitempty"`
	ProductName      string             `json:"productName"`
	BatchID          string             `json:"batchId"`
	QRCode           string             `json:"qrCode"`
	VerificationDate time.Time          `json:"verificationDate"`
	Status           VerificationStatus `json:"status"`
	BlockchainHash   string             `json:"blockchainHash"`
	VerifiedBy       string             `json:"verifiedBy"`
	VerifierID       string             `json:"verifierId"`
	Location         string             `json:"location"`
	Temperature      *float64           `json:"temperature,omitempty"`
	Humidity         *float64           `json:"humidity,omitempty"`
	Notes            string             `json:"notes,omitempty"`
}

type ProductFilter struct {
	OwnerID  string
	Status   ProductStatus
	Category string
	Q        string
	Offset   int
	Limit    int
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByQRCode(ctx context.Context, qr string) (*Product, error)
	Search(ctx context.Context, f ProductFilter) ([]Product, int64, error)
	CountByStatus(ctx context.Context, ownerID string) (map[ProductStatus]int64, int64, error)
}

type VerificationFilter struct {
	VerifierID string
	OwnerID    string // 按产品归属（供应商视角）
	Offset     int
	Limit      int
}

type VerificationRepository interface {
	Create(ctx context.Context, v *Verification) error
	List(ctx context.Context, f VerificationFilter) ([]Verification, int64, error)
	CountByStatus(ctx context.Context, f VerificationFilter) (map[VerificationStatus]int64, error)
}

type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditFailed  AuditStatus = "failed"
	AuditWarning AuditStatus = "warning"
)

type AuditLog struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	UserName  string      `json:"userName"`
	Action    string      `json:"action"`
	Resource  string      `json:"resource"`
	Timestamp time.Time   `json:"timestamp"`
	IPAddress string      `json:"ipAddress"`
	UserAgent string      `json:"userAgent"`
	Status    AuditStatus `json:"status"`
	Details   string      `json:"details,omitempty"`
}

type AuditFilter struct {
	UserID string
	Action string
	Status AuditStatus
	Offset int
	Limit  int
}

type AuditRepository interface {
	Create(ctx context.Context, a *AuditLog) error
	List(ctx context.Context, f AuditFilter) ([]AuditLog, int64, error)
}

// 审计动作
const (
	ActionLogin        = "LOGIN"
	ActionLoginAttempt = "LOGIN_ATTEMPT"
	ActionRegister     = "REGISTER"
	ActionLogout       = "LOGOUT"
	ActionUpdatePrefs  = "UPDATE_PREFERENCES"
	ActionUpdateStatus = "UPDATE_USER_STATUS"
	ActionUpdateRole   = "UPDATE_USER_ROLE"
	ActionBanUser      = "BAN_USER"
	ActionVerify       = "VERIFY_PRODUCT"
	ActionUpdateOrder  = "UPDATE_ORDER_STATUS"
)
