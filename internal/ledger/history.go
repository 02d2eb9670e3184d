package ledger

import (
	"strings"

	"depo-backend/internal/database"
	"depo-backend/internal/models"
)

// HistoryEntry: bir stok kaydının hareket satırı. Transferden doğan
// hareketler transferin hasar ve yorum bilgisiyle işaretlenir.
type HistoryEntry struct {
	Type       models.OperationType `json:"type"`
	Qty        int                  `json:"qty"`
	Source     string               `json:"source"`
	Ts         int64                `json:"ts"`
	Time       string               `json:"time"`
	TransferID string               `json:"transfer_id,omitempty"`
	Damaged    bool                 `json:"damaged"`
	HasComment bool                 `json:"has_comment"`
}

const historyLimit = 500

// GetHistory: [fromTs, toTs] aralığındaki hareketler, en yenisi önce.
// Defter append-only olduğu için aynı aralık yeni hareket gelmedikçe hep
// aynı sonucu verir.
func GetHistory(itemID uint, fromTs, toTs int64) ([]HistoryEntry, error) {
	var ops []models.Operation
	if err := database.DB.
		Preload("Transfer").
		Where("stock_item_id = ? AND ts >= ? AND ts <= ?", itemID, fromTs, toTs).
		Order("ts DESC").
		Limit(historyLimit).
		Find(&ops).Error; err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(ops))
	for _, op := range ops {
		e := HistoryEntry{
			Type:   op.Type,
			Qty:    op.Qty,
			Source: op.Source,
			Ts:     op.Ts,
			Time:   op.Time,
		}
		if op.Transfer != nil {
			e.TransferID = op.Transfer.PublicID
			e.Damaged = op.Transfer.Damaged
			e.HasComment = op.Transfer.Comment != nil && strings.TrimSpace(*op.Transfer.Comment) != ""
		}
		entries = append(entries, e)
	}
	return entries, nil
}
