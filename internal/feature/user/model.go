package user

import (
	"time"

	"gorm.io/gorm"

	"supplysphere/internal/domain"
)

type UserModel struct {
	ID            string   `gorm:"primaryKey;type:varchar(32)"`
	Email         string   `gorm:"uniqueIndex;size:255;not null"`
	Name          string   `gorm:"size:64;not null"`
	PasswordHash  string   `gorm:"size:100;not null"`
	Role          string   `gorm:"size:16;not null;index"`
	Status        string   `gorm:"size:16;not null;default:active;index"`
	Theme         string   `gorm:"size:8;not null;default:light"`
	Notifications bool     `gorm:"not null;default:true"`
	Department    string   `gorm:"size:64"`
	Permissions   []string `gorm:"serializer:json;type:text"`
	LastLoginAt   *time.Time

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Status:       domain.Status(m.Status),
		Preferences:  domain.Preferences{Theme: m.Theme, Notifications: m.Notifications},
		Department:   m.Department,
		Permissions:  m.Permissions,
		LastLoginAt:  m.LastLoginAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if u.Permissions == nil {
		u.Permissions = []string{}
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		u.DeletedAt = &t
	}
	return u
}

func FromDomain(u *domain.User) *UserModel {
	m := &UserModel{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		Status:        string(u.Status),
		Theme:         u.Preferences.Theme,
		Notifications: u.Preferences.Notifications,
		Department:    u.Department,
		Permissions:   u.Permissions,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *u.DeletedAt, Valid: true}
	}
	return m
}
