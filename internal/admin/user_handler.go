package admin

import (
	"fmt"
	"strings"

	"depo-backend/internal/audit"
	"depo-backend/internal/auth"
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserRequest struct {
	Name       string `json:"name"`
	Login      string `json:"login"`
	Password   string `json:"password"`
	Role       string `json:"role"` // "admin" | "storekeeper"
	LocationID *uint  `json:"location_id"`
}

type UserResponse struct {
	ID                 uint    `json:"id"`
	Name               string  `json:"name"`
	Login              string  `json:"login"`
	Role               string  `json:"role"`
	LocationID         *uint   `json:"location_id"`
	LocationName       *string `json:"location_name,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
	Active             bool    `json:"active"`
	CreatedAt          string  `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	res := UserResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Login:              u.Login,
		Role:               string(u.Role),
		LocationID:         u.LocationID,
		MustChangePassword: u.MustChangePassword,
		Active:             u.Active,
		CreatedAt:          u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if u.Location != nil {
		res.LocationName = &u.Location.Name
	}
	return res
}

func cleanLogin(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// POST /api/admin/users
// Yeni kullanıcı ilk girişte şifresini değiştirmek zorundadır.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Login = cleanLogin(body.Login)
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Login == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, login ve şifre zorunlu")
		}

		role := models.UserRole(body.Role)
		switch role {
		case models.RoleAdmin:
			// adminin depo bağlantısı olmaz
			body.LocationID = nil
		case models.RoleStorekeeper:
			if body.LocationID == nil || *body.LocationID == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Depocu için depo zorunlu")
			}
			var loc models.Location
			if err := database.DB.First(&loc, "id = ? AND active = ?", *body.LocationID, true).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Depo bulunamadı veya pasif")
			}
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Rol 'admin' veya 'storekeeper' olmalı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:               body.Name,
			Login:              body.Login,
			PasswordHash:       string(hash),
			Role:               role,
			LocationID:         body.LocationID,
			MustChangePassword: true,
			Active:             true,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Bu login zaten kullanımda")
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  user.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "user",
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Kullanıcı oluşturuldu: %s (%s)", user.Name, user.Role),
		})

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

const userListLimit = 500

// GET /api/admin/users
// İstek sahibi listede görünmez.
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var users []models.User
		if err := database.DB.
			Preload("Location").
			Where("id <> ?", actor.ID).
			Order("created_at DESC").
			Limit(userListLimit).
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı listesi alınamadı")
		}

		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, toUserResponse(&users[i]))
		}
		return c.JSON(res)
	}
}

// DELETE /api/admin/users/:id
// Soft-delete; admin kendini pasifleştiremez.
func DeactivateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		userID, err := parseUintParam(c.Params("id"))
		if err != nil || userID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}
		if userID == actor.ID {
			return fiber.NewError(fiber.StatusBadRequest, "Kendi hesabınızı pasifleştiremezsiniz")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		if err := database.DB.Model(&user).Update("active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı pasifleştirilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  user.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "user",
			EntityID:    user.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Kullanıcı pasifleştirildi: %s", user.Name),
		})

		return c.JSON(fiber.Map{"message": "Kullanıcı pasifleştirildi"})
	}
}

// POST /api/admin/users/:id/reset-password
// Yeni geçici şifre atanır; kullanıcı ilk girişte değiştirmek zorundadır.
func ResetPasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		userID, err := parseUintParam(c.Params("id"))
		if err != nil || userID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kullanıcı ID")
		}

		var body struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err != nil || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Yeni şifre zorunlu")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kullanıcı bulunamadı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		if err := database.DB.Model(&user).Updates(map[string]any{
			"password_hash":        string(hash),
			"must_change_password": true,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre güncellenemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			LocationID:  user.LocationID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "user",
			EntityID:    user.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Şifre sıfırlandı: %s", user.Login),
		})

		return c.JSON(fiber.Map{"message": "Şifre sıfırlandı"})
	}
}
