package ledger

import (
	"fmt"
	"strconv"
	"time"

	"depo-backend/internal/audit"
	"depo-backend/internal/auth"
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseUintParam: "12abc" gibi kısmi sayıları kabul etmez.
func parseUintParam(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

type RecordOperationRequest struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Unit   *string `json:"unit"`
	Qty    int     `json:"qty"`
	Source string  `json:"source"` // serbest metin kaynak/hedef etiketi
	Type   string  `json:"type"`   // "in" | "out"
}

type RenameItemRequest struct {
	Name string `json:"name"`
}

type ItemResponse struct {
	ID         uint    `json:"id"`
	LocationID uint    `json:"location_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Unit       *string `json:"unit"`
	Quantity   int     `json:"quantity"`
	Active     bool    `json:"active"`
	CreatedAt  string  `json:"created_at"`
}

func toItemResponse(item *models.StockItem) ItemResponse {
	return ItemResponse{
		ID:         item.ID,
		LocationID: item.LocationID,
		Code:       item.Code,
		Name:       item.Name,
		Unit:       item.Unit,
		Quantity:   item.Quantity,
		Active:     item.Active,
		CreatedAt:  item.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/ops
func RecordOperationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}
		if actor.LocationID == nil {
			return fiber.NewError(fiber.StatusForbidden, "Depo bağlantısı olmayan kullanıcı stok işleyemez")
		}

		var body RecordOperationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		item, err := ApplyOperation(ApplyOperationInput{
			LocationID: *actor.LocationID,
			Code:       body.Code,
			Name:       body.Name,
			Unit:       body.Unit,
			Qty:        body.Qty,
			Type:       models.OperationType(body.Type),
			Source:     body.Source,
			UserID:     actor.ID,
		})
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  actor.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "stock_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Stok hareketi: %s ×%d (%s)", item.Name, body.Qty, body.Type),
			After:       item,
		})

		return c.JSON(toItemResponse(item))
	}
}

// GET /api/items?location_id=3|all
// Depocu kendi deposunu görür; admin location_id ile filtreleyebilir.
func ListItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.StockItem{}).Where("active = ?", true)

		if actor.IsAdmin() {
			if lidStr := c.Query("location_id"); lidStr != "" && lidStr != "all" {
				lid, err := parseUintParam(lidStr)
				if err != nil || lid == 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Geçersiz location_id")
				}
				dbq = dbq.Where("location_id = ?", lid)
			}
		} else {
			if actor.LocationID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Depo bağlantısı bulunamadı")
			}
			dbq = dbq.Where("location_id = ?", *actor.LocationID)
		}

		var items []models.StockItem
		if err := dbq.Order("name ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok listesi alınamadı")
		}

		res := make([]ItemResponse, 0, len(items))
		for i := range items {
			res = append(res, toItemResponse(&items[i]))
		}
		return c.JSON(res)
	}
}

// PATCH /api/items/:id
func RenameItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		itemID, err := parseUintParam(c.Params("id"))
		if err != nil || itemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		var body RenameItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		item, err := RenameItem(itemID, actor.LocationID, body.Name)
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  actor.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "stock_item",
			EntityID:    item.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Ürün adı değişti: %s", item.Name),
			After:       item,
		})

		return c.JSON(toItemResponse(item))
	}
}

// DELETE /api/items/:id
func DeleteItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		itemID, err := parseUintParam(c.Params("id"))
		if err != nil || itemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		item, err := SoftDeleteItem(itemID, actor.LocationID, actor.IsAdmin())
		if err != nil {
			return err
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  &item.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "stock_item",
			EntityID:    item.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Stok kaydı silindi: %s (%s)", item.Name, item.Code),
			After:       item,
		})

		return c.JSON(fiber.Map{"message": "Stok kaydı silindi"})
	}
}

// GET /api/items/:id/history?from_ts=&to_ts=
// Aralık verilmezse son 7 gün.
func ItemHistoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		itemID, err := parseUintParam(c.Params("id"))
		if err != nil || itemID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		var item models.StockItem
		if err := database.DB.First(&item, "id = ?", itemID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kaydı bulunamadı")
		}

		if !actor.IsAdmin() && (actor.LocationID == nil || *actor.LocationID != item.LocationID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu stok kaydı başka bir depoya ait")
		}

		nowMs := time.Now().UnixMilli()
		fromTs := nowMs - 7*24*time.Hour.Milliseconds()
		toTs := nowMs

		if s := c.Query("from_ts"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz from_ts")
			}
			fromTs = v
		}
		if s := c.Query("to_ts"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz to_ts")
			}
			toTs = v
		}

		history, err := GetHistory(itemID, fromTs, toTs)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareket geçmişi alınamadı")
		}

		return c.JSON(history)
	}
}
