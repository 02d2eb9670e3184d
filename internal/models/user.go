package models

import "time"

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleStorekeeper UserRole = "storekeeper"
)

type User struct {
	ID                 uint `gorm:"primaryKey"`
	LocationID         *uint // admin için boş, depocu için zorunlu
	Location           *Location
	Name               string   `gorm:"size:100;not null"`
	Login              string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash       string   `gorm:"size:255;not null"`
	Role               UserRole `gorm:"size:20;not null"`
	MustChangePassword bool     `gorm:"not null;default:false"`
	Active             bool     `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
