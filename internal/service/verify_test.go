package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplysphere/internal/domain"
	"supplysphere/internal/feature/product"
	"supplysphere/pkg/utils"
)

func (e *env) product(t *testing.T, owner, batch string, mutate func(m *product.ProductModel)) *product.ProductModel {
	t.Helper()
	now := time.Now().UTC()
	m := &product.ProductModel{
		ID:             utils.NewID(),
		OwnerID:        owner,
		Name:           "Organic Tomatoes",
		BatchID:        batch,
		Category:       "Vegetables",
		Supplier:       "Green Valley Farms",
		ProductionDate: now.AddDate(0, 0, -5),
		ExpiryDate:     now.AddDate(0, 1, 0),
		Price:          decimal.RequireFromString("4.99"),
		StockLevel:     100,
		Certifications: []string{"Organic"},
	}
	require.NoError(t, m.Prepare())
	if mutate != nil {
		mutate(m)
	}
	require.NoError(t, e.db.Create(m).Error)
	return m
}

func TestVerify_Outcomes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.user(t, "supplier@test.com")
	vendor := e.user(t, "vendor@test.com")
	svc := NewVerifyService(e.products, e.verifs, e.auditor)

	e.product(t, sup.ID, "OK-1", nil)
	e.product(t, sup.ID, "TAMPER-1", func(m *product.ProductModel) { m.BlockchainHash = "0xdeadbeef" })
	e.product(t, sup.ID, "RECALL-1", func(m *product.ProductModel) { m.Status = string(domain.ProductRecalled) })
	e.product(t, sup.ID, "OLD-1", func(m *product.ProductModel) {
		m.ProductionDate = time.Now().AddDate(0, -3, 0)
		m.ExpiryDate = time.Now().AddDate(0, -1, 0)
		m.BlockchainHash = product.Hash(m)
	})

	cases := []struct {
		qr     string
		status domain.VerificationStatus
		notes  string
	}{
		{"QR-OK-1", domain.VerificationVerified, ""},
		{"QR-NOPE", domain.VerificationFailed, "unknown QR code"},
		{"QR-TAMPER-1", domain.VerificationSuspicious, "blockchain hash mismatch"},
		{"QR-RECALL-1", domain.VerificationFailed, "product recalled"},
		{"QR-OLD-1", domain.VerificationFailed, "product expired"},
	}
	for _, tc := range cases {
		t.Run(tc.qr, func(t *testing.T) {
			v, err := svc.Verify(ctx, vendor, VerifyInput{QRCode: tc.qr, Location: "Dock 4"}, meta)
			require.NoError(t, err)
			assert.Equal(t, tc.status, v.Status)
			assert.Equal(t, tc.notes, v.Notes)
			assert.Equal(t, "Jane Vendor", v.VerifiedBy)
		})
	}

	_, err := svc.Verify(ctx, vendor, VerifyInput{QRCode: "  "}, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, total, err := svc.List(ctx, vendor, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, list, 5)

	// 供应商只看到自己产品的核验记录（未知码不算）
	_, total, err = svc.List(ctx, sup, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	assert.EqualValues(t, 5, e.auditCount(t, domain.ActionVerify))
}

func TestVerify_NotesAppended(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	vendor := e.user(t, "vendor@test.com")
	svc := NewVerifyService(e.products, e.verifs, e.auditor)

	temp := 4.5
	v, err := svc.Verify(ctx, vendor, VerifyInput{QRCode: "QR-X", Temperature: &temp, Notes: "box damaged"}, meta)
	require.NoError(t, err)
	assert.Equal(t, "unknown QR code; box damaged", v.Notes)
	require.NotNil(t, v.Temperature)
	assert.InDelta(t, 4.5, *v.Temperature, 0.001)
}
