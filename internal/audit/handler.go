package audit

import (
	"strconv"

	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	LocationID  *uint              `json:"location_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/audit-logs?entity_type=transfer&entity_id=1&location_id=1
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		// Depo filtresi
		if lidStr := c.Query("location_id"); lidStr != "" {
			if lid, err := strconv.ParseUint(lidStr, 10, 32); err == nil && lid > 0 {
				dbq = dbq.Where("location_id = ?", uint(lid))
			}
		}

		// User ID filtresi
		if uidStr := c.Query("user_id"); uidStr != "" {
			if uid, err := strconv.ParseUint(uidStr, 10, 32); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uint(uid))
			}
		}

		// Entity filtreleri
		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eidStr := c.Query("entity_id"); eidStr != "" {
			if eid, err := strconv.ParseUint(eidStr, 10, 32); err == nil && eid > 0 {
				dbq = dbq.Where("entity_id = ?", uint(eid))
			}
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				LocationID:  log.LocationID,
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
			})
		}

		return c.JSON(resp)
	}
}
