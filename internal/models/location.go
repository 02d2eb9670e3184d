package models

import "time"

// Location: fiziksel depo/saha. Silme işlemi soft-delete'tir (active=false);
// hareket geçmişi depoya bağlı kaldığı için kayıt asla fiziksel silinmez.
type Location struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Users []User
}
