package admin

import (
	"fmt"
	"strconv"
	"strings"

	"depo-backend/internal/audit"
	"depo-backend/internal/auth"
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// parseUintParam: "12abc" gibi kısmi sayıları kabul etmez.
func parseUintParam(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint(v), err
}

type LocationRequest struct {
	Name string `json:"name"`
}

type LocationResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func toLocationResponse(loc *models.Location) LocationResponse {
	return LocationResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Active:    loc.Active,
		CreatedAt: loc.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/admin/locations
func CreateLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body LocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Depo adı zorunlu")
		}

		loc := models.Location{Name: body.Name, Active: true}
		if err := database.DB.Create(&loc).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir depo zaten var")
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  &loc.ID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Depo oluşturuldu: %s", loc.Name),
			After:       loc,
		})

		return c.Status(fiber.StatusCreated).JSON(toLocationResponse(&loc))
	}
}

// GET /api/locations
// Transfer hedefi seçimi için; tüm oturum açmış kullanıcılara açık.
func ListActiveLocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var locations []models.Location
		if err := database.DB.
			Where("active = ?", true).
			Order("name ASC").
			Find(&locations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Depo listesi alınamadı")
		}

		res := make([]LocationResponse, 0, len(locations))
		for i := range locations {
			res = append(res, toLocationResponse(&locations[i]))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/locations
// Pasifler dahil tam liste.
func ListLocationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var locations []models.Location
		if err := database.DB.Order("name ASC").Find(&locations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Depo listesi alınamadı")
		}

		res := make([]LocationResponse, 0, len(locations))
		for i := range locations {
			res = append(res, toLocationResponse(&locations[i]))
		}
		return c.JSON(res)
	}
}

// PATCH /api/admin/locations/:id
func RenameLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		locID, err := parseUintParam(c.Params("id"))
		if err != nil || locID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz depo ID")
		}

		var body LocationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Depo adı zorunlu")
		}

		var loc models.Location
		if err := database.DB.First(&loc, "id = ?", locID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Depo bulunamadı")
		}

		before := loc
		if err := database.DB.Model(&loc).Update("name", body.Name).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir depo zaten var")
		}
		loc.Name = body.Name

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  &loc.ID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Depo adı değişti: %s → %s", before.Name, loc.Name),
			Before:      before,
			After:       loc,
		})

		return c.JSON(toLocationResponse(&loc))
	}
}

// DELETE /api/admin/locations/:id
// Soft-delete: depo pasifleşir, bağlı kullanıcılar da pasifleşir. Stok ve
// hareket geçmişi yerinde kalır.
func DeleteLocationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		locID, err := parseUintParam(c.Params("id"))
		if err != nil || locID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz depo ID")
		}

		var loc models.Location
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&loc, "id = ?", locID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Depo bulunamadı")
			}

			// bekleyen transferi olan depo kapatılamaz; önce sonuçlandırılmalı
			var pending int64
			if err := tx.Model(&models.Transfer{}).
				Where("(from_location_id = ? OR to_location_id = ?) AND status = ?",
					locID, locID, models.TransferPending).
				Count(&pending).Error; err != nil {
				return err
			}
			if pending > 0 {
				return fiber.NewError(fiber.StatusConflict, "Depoya bağlı bekleyen transferler var")
			}

			if err := tx.Model(&loc).Update("active", false).Error; err != nil {
				return err
			}
			return tx.Model(&models.User{}).
				Where("location_id = ?", locID).
				Update("active", false).Error
		})
		if txErr != nil {
			return txErr
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  &loc.ID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "location",
			EntityID:    loc.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Depo pasifleştirildi: %s", loc.Name),
			After:       loc,
		})

		return c.JSON(fiber.Map{"message": "Depo pasifleştirildi"})
	}
}
