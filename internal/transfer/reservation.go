package transfer

import (
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"gorm.io/gorm"
)

// Rezervasyon hesabı: bekleyen transferler fiziksel düşüm yapmadığı için
// "transfer edilebilir" miktar her seferinde canlı toplamdan hesaplanır.
// Ayrı bir rezervasyon tablosu tutulmaz; kayma (drift) riski böylece yok.

// reservedQuantityTx: aynı depodan aynı barkod için bekleyen transferlerin
// toplam miktarı.
func reservedQuantityTx(tx *gorm.DB, locationID uint, code string) (int, error) {
	var reserved int64
	err := tx.Model(&models.Transfer{}).
		Where("from_location_id = ? AND code = ? AND status = ?", locationID, code, models.TransferPending).
		Select("COALESCE(SUM(qty), 0)").
		Scan(&reserved).Error
	return int(reserved), err
}

// AvailableToTransferTx: eldeki miktar eksi bekleyen rezervasyonlar.
// Kaynak satırı kilitliyken çağrılmalı; toplam ile sonraki insert aynı işlem
// kapsamında kalır ve eşzamanlı oluşturmalar toplamı aşırı satamaz.
func AvailableToTransferTx(tx *gorm.DB, item *models.StockItem) (int, error) {
	reserved, err := reservedQuantityTx(tx, item.LocationID, item.Code)
	if err != nil {
		return 0, err
	}
	return item.Quantity - reserved, nil
}

// AvailableToTransfer: kilitsiz okuma; listeleme/görüntüleme için.
func AvailableToTransfer(locationID uint, code string) (int, error) {
	var item models.StockItem
	if err := database.DB.
		Where("location_id = ? AND code = ?", locationID, code).
		First(&item).Error; err != nil {
		return 0, err
	}
	return AvailableToTransferTx(database.DB, &item)
}
