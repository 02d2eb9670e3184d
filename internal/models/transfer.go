package models

import "time"

type TransferStatus string

const (
	TransferPending  TransferStatus = "PENDING"
	TransferAccepted TransferStatus = "ACCEPTED"
	TransferRejected TransferStatus = "REJECTED"
)

// Transfer: iki depo arasında önerilen stok hareketi. PENDING durumdayken
// kaynak bakiyeyi rezerve eder ama fiziksel düşüm kabule kadar ertelenir.
// ACCEPTED ve REJECTED terminaldir; bir daha değişmez.
type Transfer struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"size:36;uniqueIndex;not null"` // dışarıya açılan kimlik

	// Ürün bilgisi oluşturma anının kopyasıdır; kaynak kayıt sonradan
	// değişse bile transfer kendi görüntüsünü taşır.
	Code string  `gorm:"size:64;not null;index"`
	Name string  `gorm:"size:100;not null"`
	Unit *string `gorm:"size:20"`
	Qty  int     `gorm:"not null"`

	Status TransferStatus `gorm:"size:16;not null;default:PENDING;index"`

	FromLocationID uint `gorm:"not null;index"`
	FromLocation   Location
	ToLocationID   uint `gorm:"not null;index"`
	ToLocation     Location

	CreatedByID uint `gorm:"not null"`
	CreatedBy   User
	ActedByID   *uint // sonuçlanana kadar boş
	ActedBy     *User

	Ts        int64  `gorm:"not null"`
	Time      string `gorm:"size:40;not null"`
	ActedTs   *int64 `gorm:"index"`
	ActedTime *string `gorm:"size:40"`

	Damaged bool    `gorm:"not null;default:false"`
	Comment *string `gorm:"size:200"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
