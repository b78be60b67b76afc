package audit

import (
	"time"

	"supplysphere/internal/domain"
)

type LogModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)"`
	UserID    string    `gorm:"size:32;index"`
	UserName  string    `gorm:"size:64"`
	Action    string    `gorm:"size:32;not null;index"`
	Resource  string    `gorm:"size:128"`
	Timestamp time.Time `gorm:"not null;index"`
	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:255"`
	Status    string    `gorm:"size:16;not null;index"`
	Details   string    `gorm:"size:512"`
}

func (LogModel) TableName() string { return "audit_logs" }

func (m *LogModel) ToDomain() domain.AuditLog {
	return domain.AuditLog{
		ID:        m.ID,
		UserID:    m.UserID,
		UserName:  m.UserName,
		Action:    m.Action,
		Resource:  m.Resource,
		Timestamp: m.Timestamp,
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		Status:    domain.AuditStatus(m.Status),
		Details:   m.Details,
	}
}

func FromDomain(a *domain.AuditLog) *LogModel {
	ua := a.UserAgent
	if len(ua) > 255 {
		ua = ua[:255]
	}
	return &LogModel{
		ID:        a.ID,
		UserID:    a.UserID,
		UserName:  a.UserName,
		Action:    a.Action,
		Resource:  a.Resource,
		Timestamp: a.Timestamp,
		IPAddress: a.IPAddress,
		UserAgent: ua,
		Status:    string(a.Status),
		Details:   a.Details,
	}
}
