package product

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"supplysphere/internal/domain"
)

type ProductModel struct {
	ID             string          `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OwnerID        string          `gorm:"size:32;not null;index" json:"ownerId"`
	Name           string          `gorm:"size:128;not null" json:"name" binding:"required,max=128"`
	Description    string          `gorm:"size:512" json:"description"`
	BatchID        string          `gorm:"size:64;not null;index" json:"batchId" binding:"required,max=64"`
	Category       string          `gorm:"size:64;index" json:"category"`
	Supplier       string          `gorm:"size:128" json:"supplier"`
	ProductionDate time.Time       `json:"productionDate"`
	ExpiryDate     time.Time       `json:"expiryDate"`
	Status         string          `gorm:"size:16;not null;default:active;index" json:"status"`
	QRCode         string          `gorm:"size:96;uniqueIndex" json:"qrCode"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	StockLevel     int             `json:"stockLevel"`
	Certifications []string        `gorm:"serializer:json;type:text" json:"certifications"`
	BlockchainHash string          `gorm:"size:80" json:"blockchainHash"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ProductModel) TableName() string { return "products" }

// Prepare 补默认值并重算哈希（创建/更新前调用）
func (m *ProductModel) Prepare() error {
	m.Name = strings.TrimSpace(m.Name)
	m.BatchID = strings.TrimSpace(m.BatchID)
	if m.Name == "" || m.BatchID == "" {
		return domain.ErrInvalidInput
	}
	if m.Status == "" {
		m.Status = string(domain.ProductActive)
	}
	if !domain.ProductStatus(m.Status).Valid() {
		return domain.ErrInvalidInput
	}
	if !m.ExpiryDate.IsZero() && !m.ProductionDate.IsZero() && m.ExpiryDate.Before(m.ProductionDate) {
		return domain.ErrInvalidInput
	}
	if m.Price.IsNegative() || m.StockLevel < 0 {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(m.QRCode) == "" {
		m.QRCode = "QR-" + m.BatchID
	}
	if m.Certifications == nil {
		m.Certifications = []string{}
	}
	m.BlockchainHash = Hash(m)
	return nil
}

// Hash 产品内容指纹：0x + sha256(规范化字段)
func Hash(m *ProductModel) string {
	d := m.ToDomain()
	return HashProduct(&d)
}

func HashProduct(p *domain.Product) string {
	certs := append([]string(nil), p.Certifications...)
	sort.Strings(certs)
	canon := strings.Join([]string{
		p.Name,
		p.BatchID,
		p.Supplier,
		p.ProductionDate.UTC().Format("2006-01-02"),
		p.ExpiryDate.UTC().Format("2006-01-02"),
		strings.Join(certs, ","),
	}, "|")
	sum := sha256.Sum256([]byte(canon))
	return "0x" + hex.EncodeToString(sum[:])
}

func (m *ProductModel) ToDomain() domain.Product {
	return domain.Product{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Name:           m.Name,
		Description:    m.Description,
		BatchID:        m.BatchID,
		Category:       m.Category,
		Supplier:       m.Supplier,
		ProductionDate: m.ProductionDate,
		ExpiryDate:     m.ExpiryDate,
		Status:         domain.ProductStatus(m.Status),
		QRCode:         m.QRCode,
		Price:          m.Price,
		StockLevel:     m.StockLevel,
		Certifications: m.Certifications,
		BlockchainHash: m.BlockchainHash,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type VerificationModel struct {
	ID               string `gorm:"primaryKey;type:varchar(32)"`
	ProductID        string `gorm:"size:32;index"`
	ProductOwnerID   string `gorm:"size:32;index"`
	ProductName      string `gorm:"size:128"`
	BatchID          string `gorm:"size:64"`
	QRCode           string `gorm:"size:96;index"`
	VerificationDate time.Time
	Status           string `gorm:"size:16;not null;index"`
	BlockchainHash   string `gorm:"size:80"`
	VerifiedBy       string `gorm:"size:64"`
	VerifierID       string `gorm:"size:32;index"`
	Location         string `gorm:"size:128"`
	Temperature      *float64
	Humidity         *float64
	Notes            string `gorm:"size:512"`
}

func (VerificationModel) TableName() string { return "verifications" }

func (m *VerificationModel) ToDomain() domain.Verification {
	return domain.Verification{
		ID:               m.ID,
		ProductID:        m.ProductID,
		ProductOwnerID:   m.ProductOwnerID,
		ProductName:      m.ProductName,
		BatchID:          m.BatchID,
		QRCode:           m.QRCode,
		VerificationDate: m.VerificationDate,
		Status:           domain.VerificationStatus(m.Status),
		BlockchainHash:   m.BlockchainHash,
		VerifiedBy:       m.VerifiedBy,
		VerifierID:       m.VerifierID,
		Location:         m.Location,
		Temperature:      m.Temperature,
		Humidity:         m.Humidity,
		Notes:            m.Notes,
	}
}
