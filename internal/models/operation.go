package models

import "time"

type OperationType string

const (
	OperationIn  OperationType = "in"
	OperationOut OperationType = "out"
)

// Operation: stok hareket defteri kaydı. Append-only; oluşturulduktan sonra
// güncellenmez ve silinmez.
type Operation struct {
	ID          uint          `gorm:"primaryKey"`
	Type        OperationType `gorm:"size:8;not null;index"`
	Qty         int           `gorm:"not null"`
	Source      string        `gorm:"size:120"`         // serbest metin kaynak/hedef etiketi
	Ts          int64         `gorm:"not null;index"`   // epoch ms
	Time        string        `gorm:"size:40;not null"` // okunur zaman
	LocationID  uint          `gorm:"not null;index"`
	Location    Location
	StockItemID uint `gorm:"not null;index"`
	StockItem   StockItem
	UserID      uint `gorm:"not null"`
	User        User
	TransferID  *uint `gorm:"index"` // manuel giriş/çıkışta boş
	Transfer    *Transfer
	CreatedAt   time.Time
}
