package ledger

import (
	"errors"
	"strings"

	"depo-backend/internal/apperr"
	"depo-backend/internal/clock"
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"gorm.io/gorm"
)

// Stok defterinin çekirdeği. Miktar değiştiren her yol (manuel giriş/çıkış ve
// transfer kapanışı) bu paketin tx fonksiyonlarından geçer; başka hiçbir kod
// quantity alanına dokunmaz.

// findItemTx: (depo, barkod) kaydını satır kilidiyle getirir. Aktiflik
// filtresi yok; pasif kayıt da bulunur ki yeniden aktifleştirilebilsin.
func findItemTx(tx *gorm.DB, locationID uint, code string) (*models.StockItem, error) {
	var item models.StockItem
	err := database.LockForUpdate(tx).
		Where("location_id = ? AND code = ?", locationID, code).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// reactivateItemTx: pasif kaydı geri açar. Miktar, ad ve birim olduğu gibi
// kalır (silme miktarı zaten sıfırlamıştır).
func reactivateItemTx(tx *gorm.DB, item *models.StockItem) error {
	if item.Active {
		return nil
	}
	if err := tx.Model(item).Update("active", true).Error; err != nil {
		return err
	}
	item.Active = true
	return nil
}

// FindOrCreateItemTx: stok kaydını çözer; yoksa sıfır miktarla açar, pasifse
// geri açar. Hem manuel giriş hem transfer kapanışı aynı noktadan geçer ki
// yeniden aktifleştirme davranışı tek yerde kalsın. Var olan kaydın adı ve
// birimi asla ezilmez; name/unit yalnızca oluşturma yolunda yazılır.
func FindOrCreateItemTx(tx *gorm.DB, locationID uint, code, name string, unit *string) (*models.StockItem, error) {
	item, err := findItemTx(tx, locationID, code)
	if err == nil {
		return item, reactivateItemTx(tx, item)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.StockItem{
		LocationID: locationID,
		Code:       code,
		Name:       name,
		Unit:       unit,
		Quantity:   0,
		Active:     true,
	}
	if err := tx.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// eşzamanlı oluşturma yarışı: unique indeks ikinci kaydı engelledi
			return nil, apperr.Conflict("Stok kaydı eşzamanlı oluşturuldu, işlemi tekrarlayın")
		}
		return nil, err
	}
	return &created, nil
}

// AppendOperationTx: hareket defterine kayıt ekler. Defter append-only'dir;
// bu paket Operation üzerinde Update/Delete yüzeyi açmaz.
func AppendOperationTx(tx *gorm.DB, op *models.Operation) error {
	return tx.Create(op).Error
}

type ApplyOperationInput struct {
	LocationID uint
	Code       string
	Name       string
	Unit       *string
	Qty        int
	Type       models.OperationType
	Source     string
	UserID     uint
}

// ApplyOperation: manuel giriş/çıkış. Kayıt çözme (gerekirse oluşturma ve
// yeniden aktifleştirme), miktar güncelleme ve defter kaydı tek işlemde
// tamamlanır; hata halinde hiçbiri kalıcı olmaz.
func ApplyOperation(in ApplyOperationInput) (*models.StockItem, error) {
	code := strings.Join(strings.Fields(in.Code), "") // barkod içi boşluklar atılır
	if code == "" {
		return nil, apperr.Validation("Barkod zorunlu")
	}
	if in.Qty <= 0 {
		return nil, apperr.Validation("Miktar 0'dan büyük olmalı")
	}
	if in.Type != models.OperationIn && in.Type != models.OperationOut {
		return nil, apperr.Validation("İşlem tipi 'in' veya 'out' olmalı")
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "—"
	}

	meta := clock.NowMeta()

	var item *models.StockItem
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		existing, err := findItemTx(tx, in.LocationID, code)
		switch {
		case err == nil:
			if err := reactivateItemTx(tx, existing); err != nil {
				return err
			}
			item = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if in.Type == models.OperationOut {
				// çıkış yeni kayıt açamaz
				return apperr.NotFound("Bu barkod için stok kaydı yok")
			}
			if strings.TrimSpace(in.Name) == "" {
				return apperr.Validation("Yeni ürün için ad zorunlu")
			}
			item, err = FindOrCreateItemTx(tx, in.LocationID, code, strings.TrimSpace(in.Name), in.Unit)
			if err != nil {
				return err
			}
		default:
			return err
		}

		newQty := item.Quantity
		if in.Type == models.OperationIn {
			newQty += in.Qty
		} else {
			if item.Quantity < in.Qty {
				return apperr.InsufficientStock("Yetersiz stok: eldeki %d, istenen %d", item.Quantity, in.Qty)
			}
			newQty -= in.Qty
		}

		if err := tx.Model(item).Updates(map[string]any{
			"quantity": newQty,
			"active":   true,
		}).Error; err != nil {
			return err
		}
		item.Quantity = newQty
		item.Active = true

		return AppendOperationTx(tx, &models.Operation{
			Type:        in.Type,
			Qty:         in.Qty,
			Source:      source,
			Ts:          meta.Ts,
			Time:        meta.Time,
			LocationID:  in.LocationID,
			StockItemID: item.ID,
			UserID:      in.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SoftDeleteItem: kaydı pasifleştirir ve miktarı sıfırlar. Hareket geçmişi
// olduğu gibi kalır. Satır kilidi, eşzamanlı bir transfer kapanışının
// artırdığı miktarın sıfırla ezilmesini (lost update) engeller.
func SoftDeleteItem(itemID uint, actorLocationID *uint, isAdmin bool) (*models.StockItem, error) {
	var out *models.StockItem
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := database.LockForUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Stok kaydı bulunamadı")
			}
			return err
		}

		if !isAdmin && (actorLocationID == nil || *actorLocationID != item.LocationID) {
			return apperr.Forbidden("Bu stok kaydı başka bir depoya ait")
		}

		if err := tx.Model(&item).Updates(map[string]any{
			"active":   false,
			"quantity": 0,
		}).Error; err != nil {
			return err
		}
		item.Active = false
		item.Quantity = 0
		out = &item
		return nil
	})
	return out, err
}

// RenameItem: yalnızca görünen adı değiştirir; miktar ve geçmişe dokunmaz.
func RenameItem(itemID uint, actorLocationID *uint, name string) (*models.StockItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Ürün adı boş olamaz")
	}

	var item models.StockItem
	if err := database.DB.First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Stok kaydı bulunamadı")
		}
		return nil, err
	}

	if actorLocationID == nil || *actorLocationID != item.LocationID {
		return nil, apperr.Forbidden("Bu stok kaydı başka bir depoya ait")
	}

	if err := database.DB.Model(&item).Update("name", name).Error; err != nil {
		return nil, err
	}
	item.Name = name
	return &item, nil
}
