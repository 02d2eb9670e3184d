package transfer

import (
	"errors"
	"fmt"
	"strings"

	"depo-backend/internal/apperr"
	"depo-backend/internal/auth"
	"depo-backend/internal/clock"
	"depo-backend/internal/database"
	"depo-backend/internal/models"
	"depo-backend/internal/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transfer yaşam döngüsü: PENDING → ACCEPTED | REJECTED. Terminal durumlar
// değişmez; geçiş her zaman koşullu güncellemeyle (status='PENDING' şartı)
// yapılır ki yarışan ikinci karar 0 satır etkileyip InvalidState alsın.

type CreateInput struct {
	ItemID       uint
	ToLocationID uint
	Qty          int
	Damaged      bool
	Comment      string
	Actor        *auth.Actor
}

const maxCommentLen = 200

// Create: transfer talebi açar. Rezervasyon kontrolü ve insert aynı işlem
// içinde, kaynak satır kilitliyken yapılır. Bakiye burada DEĞİŞMEZ; fiziksel
// düşüm kabule ertelenir.
func Create(in CreateInput) (*models.Transfer, error) {
	if in.Actor.LocationID == nil {
		return nil, apperr.Forbidden("Depo bağlantısı olmayan kullanıcı transfer açamaz")
	}
	fromLocationID := *in.Actor.LocationID

	if in.Qty <= 0 {
		return nil, apperr.Validation("Miktar 0'dan büyük olmalı")
	}
	if in.ToLocationID == 0 {
		return nil, apperr.Validation("Hedef depo zorunlu")
	}
	if in.ToLocationID == fromLocationID {
		return nil, apperr.Validation("Hedef depo kaynak depoyla aynı olamaz")
	}

	var comment *string
	if trimmed := strings.TrimSpace(in.Comment); trimmed != "" {
		if runes := []rune(trimmed); len(runes) > maxCommentLen {
			trimmed = string(runes[:maxCommentLen])
		}
		comment = &trimmed
	}

	meta := clock.NowMeta()

	var created *models.Transfer
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := database.LockForUpdate(tx).First(&item, "id = ?", in.ItemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Stok kaydı bulunamadı")
			}
			return err
		}
		if item.LocationID != fromLocationID {
			return apperr.Forbidden("Stok kaydı başka bir depoya ait")
		}

		var toLoc models.Location
		if err := tx.First(&toLoc, "id = ?", in.ToLocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Hedef depo bulunamadı")
			}
			return err
		}
		if !toLoc.Active {
			return apperr.NotFound("Hedef depo pasif durumda")
		}

		available, err := AvailableToTransferTx(tx, &item)
		if err != nil {
			return err
		}
		if available < in.Qty {
			return apperr.InsufficientStock("Yetersiz stok: transfer edilebilir %d, istenen %d", available, in.Qty)
		}

		created = &models.Transfer{
			PublicID:       uuid.NewString(),
			Code:           item.Code,
			Name:           item.Name,
			Unit:           item.Unit,
			Qty:            in.Qty,
			Status:         models.TransferPending,
			FromLocationID: fromLocationID,
			ToLocationID:   in.ToLocationID,
			CreatedByID:    in.Actor.ID,
			Ts:             meta.Ts,
			Time:           meta.Time,
			Damaged:        in.Damaged,
			Comment:        comment,
		}
		return tx.Create(created).Error
	})
	if err != nil {
		return nil, err
	}

	// bildirim commit sonrası; başarısızlığı transferi etkilemez
	notify.Send(notify.Event{
		Kind:       "transfer-created",
		LocationID: created.ToLocationID,
		Title:      "Yeni transfer",
		Body:       fmt.Sprintf("%s ×%d", created.Name, created.Qty),
		TransferID: created.PublicID,
	})

	return created, nil
}

// findTransferTx: public id ile transferi satır kilidiyle getirir.
func findTransferTx(tx *gorm.DB, publicID string) (*models.Transfer, error) {
	var tr models.Transfer
	err := database.LockForUpdate(tx).
		Where("public_id = ?", publicID).
		First(&tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Transfer bulunamadı")
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// claimTx: PENDING → hedef durum geçişini tek koşullu güncellemeyle yapar.
// 0 satır etkilendiyse başka bir karar önce davranmıştır.
func claimTx(tx *gorm.DB, tr *models.Transfer, status models.TransferStatus, actorID uint, meta clock.Meta) error {
	res := tx.Model(&models.Transfer{}).
		Where("id = ? AND status = ?", tr.ID, models.TransferPending).
		Updates(map[string]any{
			"status":      status,
			"acted_by_id": actorID,
			"acted_ts":    meta.Ts,
			"acted_time":  meta.Time,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("Transfer zaten sonuçlanmış")
	}

	tr.Status = status
	tr.ActedByID = &actorID
	tr.ActedTs = &meta.Ts
	tr.ActedTime = &meta.Time
	return nil
}

// Accept: hedef deponun kabulü. Durum geçişi ve stok kapanışı tek işlemde
// tamamlanır; kapanış başarısız olursa geçiş de geri alınır.
func Accept(publicID string, actor *auth.Actor) (*models.Transfer, error) {
	if actor.LocationID == nil {
		return nil, apperr.Forbidden("Depo bağlantısı olmayan kullanıcı transfer kabul edemez")
	}

	meta := clock.NowMeta()

	var result *models.Transfer
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		tr, err := findTransferTx(tx, publicID)
		if err != nil {
			return err
		}
		if tr.ToLocationID != *actor.LocationID {
			return apperr.Forbidden("Transferi yalnızca hedef depo kabul edebilir")
		}
		if tr.Status != models.TransferPending {
			return apperr.InvalidState("Transfer zaten sonuçlanmış: %s", tr.Status)
		}

		if err := claimTx(tx, tr, models.TransferAccepted, actor.ID, meta); err != nil {
			return err
		}
		if err := settleTx(tx, tr, actor, meta); err != nil {
			return err
		}

		result = tr
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Send(notify.Event{
		Kind:       "transfer-accepted",
		LocationID: result.FromLocationID,
		Title:      "Transfer kabul edildi",
		Body:       fmt.Sprintf("%s ×%d", result.Name, result.Qty),
		TransferID: result.PublicID,
	})

	return result, nil
}

// Reject: hedef deponun reddi. Hiçbir bakiye değişmez; rezervasyon,
// hesaplayıcı PENDING olmayan transferi saymayı bıraktığı anda kendiliğinden
// düşer.
func Reject(publicID string, actor *auth.Actor) (*models.Transfer, error) {
	if actor.LocationID == nil {
		return nil, apperr.Forbidden("Depo bağlantısı olmayan kullanıcı transfer reddedemez")
	}

	meta := clock.NowMeta()

	var result *models.Transfer
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		tr, err := findTransferTx(tx, publicID)
		if err != nil {
			return err
		}
		if tr.ToLocationID != *actor.LocationID {
			return apperr.Forbidden("Transferi yalnızca hedef depo reddedebilir")
		}
		if tr.Status != models.TransferPending {
			return apperr.InvalidState("Transfer zaten sonuçlanmış: %s", tr.Status)
		}

		if err := claimTx(tx, tr, models.TransferRejected, actor.ID, meta); err != nil {
			return err
		}

		result = tr
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify.Send(notify.Event{
		Kind:       "transfer-rejected",
		LocationID: result.FromLocationID,
		Title:      "Transfer reddedildi",
		Body:       fmt.Sprintf("%s ×%d. Bakiye değişmedi.", result.Name, result.Qty),
		TransferID: result.PublicID,
	})

	return result, nil
}

const listLimit = 200

// ListIncoming: hedefi verilen depo olan bekleyen transferler, en yeni önce.
func ListIncoming(locationID uint) ([]models.Transfer, error) {
	var transfers []models.Transfer
	err := database.DB.
		Preload("FromLocation").
		Where("to_location_id = ? AND status = ?", locationID, models.TransferPending).
		Order("created_at DESC").
		Limit(listLimit).
		Find(&transfers).Error
	return transfers, err
}

// ListOutgoing: kaynağı verilen depo olan bekleyen transferler.
func ListOutgoing(locationID uint) ([]models.Transfer, error) {
	var transfers []models.Transfer
	err := database.DB.
		Preload("ToLocation").
		Where("from_location_id = ? AND status = ?", locationID, models.TransferPending).
		Order("created_at DESC").
		Limit(listLimit).
		Find(&transfers).Error
	return transfers, err
}

// ListUpdates: sinceTs'ten sonra sonuçlanmış giden transferler, eski önce.
// İstemci çevrimdışı kuyruğunun senkron noktası.
func ListUpdates(locationID uint, sinceTs int64) ([]models.Transfer, error) {
	var transfers []models.Transfer
	err := database.DB.
		Preload("ToLocation").
		Where("from_location_id = ? AND status IN ? AND acted_ts > ?",
			locationID, []models.TransferStatus{models.TransferAccepted, models.TransferRejected}, sinceTs).
		Order("acted_ts ASC").
		Limit(listLimit).
		Find(&transfers).Error
	return transfers, err
}

// GetByPublicID: tüm ilişkileriyle tek transfer.
func GetByPublicID(publicID string) (*models.Transfer, error) {
	var tr models.Transfer
	err := database.DB.
		Preload("FromLocation").
		Preload("ToLocation").
		Preload("CreatedBy").
		Preload("ActedBy").
		Where("public_id = ?", publicID).
		First(&tr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Transfer bulunamadı")
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}
