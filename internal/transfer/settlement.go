package transfer

import (
	"errors"
	"fmt"

	"depo-backend/internal/apperr"
	"depo-backend/internal/auth"
	"depo-backend/internal/clock"
	"depo-backend/internal/database"
	"depo-backend/internal/ledger"
	"depo-backend/internal/models"

	"gorm.io/gorm"
)

// settleTx: kabul anındaki ertelenmiş stok hareketi. Yalnızca Accept içinden,
// durum geçişi yapıldıktan sonra çağrılır. Tüm adımlar çağıranın işlemi
// içinde kalır; kısmi sonuç (kaynaktan düşülmüş ama hedefe yazılmamış hâl)
// asla görünmez.
func settleTx(tx *gorm.DB, tr *models.Transfer, actor *auth.Actor, meta clock.Meta) error {
	// 1) Kaynak stok kabul anında yeniden doğrulanır. Rezervasyon kontrolü
	// oluşturma anındaydı; aradaki bir çıkış stoku düşürmüş olabilir.
	var src models.StockItem
	err := database.LockForUpdate(tx).
		Where("location_id = ? AND code = ? AND active = ?", tr.FromLocationID, tr.Code, true).
		First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.InsufficientStock("Kaynak depoda bu ürün için stok kaydı kalmamış")
	}
	if err != nil {
		return err
	}
	if src.Quantity < tr.Qty {
		return apperr.InsufficientStock("Kaynak stok yetersiz: eldeki %d, transfer %d", src.Quantity, tr.Qty)
	}

	var fromLoc, toLoc models.Location
	if err := tx.First(&fromLoc, "id = ?", tr.FromLocationID).Error; err != nil {
		return err
	}
	if err := tx.First(&toLoc, "id = ?", tr.ToLocationID).Error; err != nil {
		return err
	}

	// 2) Kaynaktan düş; sıfıra inen kayıt pasifleşir.
	newQty := src.Quantity - tr.Qty
	if err := tx.Model(&src).Updates(map[string]any{
		"quantity": newQty,
		"active":   newQty > 0,
	}).Error; err != nil {
		return err
	}

	// Kaynak 'out' hareketi transferi açan kullanıcıya yazılır.
	if err := ledger.AppendOperationTx(tx, &models.Operation{
		Type:        models.OperationOut,
		Qty:         tr.Qty,
		Source:      fmt.Sprintf("Transfer → %s", toLoc.Name),
		Ts:          meta.Ts,
		Time:        meta.Time,
		LocationID:  tr.FromLocationID,
		StockItemID: src.ID,
		UserID:      tr.CreatedByID,
		TransferID:  &tr.ID,
	}); err != nil {
		return err
	}

	// 3) Hedefte (depo, barkod) başına tek kayıt: varsa yeniden aktifleşir ve
	// miktarı artar, yoksa transferdeki ad/birim kopyasıyla açılır. Var olan
	// kaydın adı ve birimi ezilmez.
	dst, err := ledger.FindOrCreateItemTx(tx, tr.ToLocationID, tr.Code, tr.Name, tr.Unit)
	if err != nil {
		return err
	}
	if err := tx.Model(dst).Update("quantity", gorm.Expr("quantity + ?", tr.Qty)).Error; err != nil {
		return err
	}

	// 4) Hedef 'in' hareketi kabul eden kullanıcıya yazılır.
	return ledger.AppendOperationTx(tx, &models.Operation{
		Type:        models.OperationIn,
		Qty:         tr.Qty,
		Source:      fmt.Sprintf("Transfer ← %s", fromLoc.Name),
		Ts:          meta.Ts,
		Time:        meta.Time,
		LocationID:  tr.ToLocationID,
		StockItemID: dst.ID,
		UserID:      actor.ID,
		TransferID:  &tr.ID,
	})
}
