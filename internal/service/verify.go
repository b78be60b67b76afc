package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/product"
	"supplysphere/pkg/utils"
)

type VerifyInput struct {
	QRCode      string
	Location    string
	Temperature *float64
	Humidity    *float64
	Notes       string
}

type VerifyService struct {
	products      domain.ProductRepository
	verifications domain.VerificationRepository
	audit         *Auditor
	now           func() time.Time
}

func NewVerifyService(products domain.ProductRepository, verifications domain.VerificationRepository, audit *Auditor) *VerifyService {
	return &VerifyService{products: products, verifications: verifications, audit: audit, now: time.Now}
}

// judge 依次：未知码 → 指纹不符 → 召回 → 过期 → 通过
func judge(p *domain.Product, now time.Time) (domain.VerificationStatus, string) {
	switch {
	case p == nil:
		return domain.VerificationFailed, "unknown QR code"
	case product.HashProduct(p) != p.BlockchainHash:
		return domain.VerificationSuspicious, "blockchain hash mismatch"
	case p.Status == domain.ProductRecalled:
		return domain.VerificationFailed, "product recalled"
	case p.Status == domain.ProductExpired, !p.ExpiryDate.IsZero() && p.ExpiryDate.Before(now):
		return domain.VerificationFailed, "product expired"
	}
	return domain.VerificationVerified, ""
}

func (s *VerifyService) Verify(ctx context.Context, verifier *domain.User, in VerifyInput, m Meta) (*domain.Verification, error) {
	qr := strings.TrimSpace(in.QRCode)
	if qr == "" {
		return nil, fmt.Errorf("%w: qrCode", domain.ErrInvalidInput)
	}
	p, err := s.products.FindByQRCode(ctx, qr)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find product: %w", err)
	}

	now := s.now().UTC()
	st, reason := judge(p, now)
	notes := reason
	if n := strings.TrimSpace(in.Notes); n != "" {
		if notes != "" {
			notes += "; "
		}
		notes += n
	}
	v := &domain.Verification{
		ID:               utils.NewID(),
		QRCode:           qr,
		VerificationDate: now,
		Status:           st,
		VerifiedBy:       verifier.Name,
		VerifierID:       verifier.ID,
		Location:         strings.TrimSpace(in.Location),
		Temperature:      in.Temperature,
		Humidity:         in.Humidity,
		Notes:            notes,
	}
	if p != nil {
		v.ProductID, v.ProductOwnerID, v.ProductName, v.BatchID, v.BlockchainHash = p.ID, p.OwnerID, p.Name, p.BatchID, p.BlockchainHash
	}
	if err := s.verifications.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("save verification: %w", err)
	}

	as := domain.AuditSuccess
	if st != domain.VerificationVerified {
		as = domain.AuditWarning
	}
	s.audit.Record(ctx, verifier, domain.ActionVerify, qr, as, string(st), m)
	verifications.WithLabelValues(string(st)).Inc()
	return v, nil
}

// List admin 看全部，其余只看自己的
func (s *VerifyService) List(ctx context.Context, caller *domain.User, offset, limit int) ([]domain.Verification, int64, error) {
	f := domain.VerificationFilter{Offset: offset, Limit: limit}
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleSupplier:
		f.OwnerID = caller.ID
	default:
		f.VerifierID = caller.ID
	}
	return s.verifications.List(ctx, f)
}
