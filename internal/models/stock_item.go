package models

import "time"

// StockItem: (depo, barkod) başına tek stok kaydı. Unique indeks eşzamanlı
// oluşturma yarışlarında bile ikinci kaydı engeller.
type StockItem struct {
	ID         uint `gorm:"primaryKey"`
	LocationID uint `gorm:"not null;uniqueIndex:idx_stock_items_location_code"`
	Location   Location
	Code       string  `gorm:"size:64;not null;uniqueIndex:idx_stock_items_location_code"` // barkod
	Name       string  `gorm:"size:100;not null"`
	Unit       *string `gorm:"size:20"`            // kg, adet, koli vs.
	Quantity   int     `gorm:"not null;default:0"` // eldeki miktar, asla negatife inmez
	Active     bool    `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
