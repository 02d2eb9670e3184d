package auth

import (
	"strings"

	"depo-backend/internal/config"
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterAdminRequest struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func cleanLogin(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// POST /api/auth/register-admin
// İlk kurulum için; sistemde admin varken ikinciyi açmaz.
func RegisterAdminHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Login = cleanLogin(body.Login)
		body.Name = strings.TrimSpace(body.Name)

		if body.Login == "" || body.Password == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "İsim, login ve şifre zorunlu")
		}

		var count int64
		database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "Zaten bir admin var")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Login:        body.Login,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			Active:       true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    user.ID,
			"login": user.Login,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Login = cleanLogin(body.Login)

		var user models.User
		if err := database.DB.Where("login = ?", body.Login).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Login veya şifre hatalı")
		}
		if !user.Active {
			return fiber.NewError(fiber.StatusForbidden, "Hesap pasif durumda")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Login veya şifre hatalı")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":                   user.ID,
				"name":                 user.Name,
				"login":                user.Login,
				"role":                 user.Role,
				"location_id":          user.LocationID,
				"must_change_password": user.MustChangePassword,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFromCtx(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := database.DB.Preload("Location").First(&user, "id = ?", actor.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		response := fiber.Map{
			"id":                   user.ID,
			"name":                 user.Name,
			"login":                user.Login,
			"role":                 user.Role,
			"location_id":          user.LocationID,
			"must_change_password": user.MustChangePassword,
		}
		if user.Location != nil {
			response["location_name"] = user.Location.Name
		}

		return c.JSON(response)
	}
}

// POST /api/auth/change-password
// must_change_password açıksa eski şifre sorulmaz (ilk giriş zorunlu değişim).
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if len(body.NewPassword) < 4 {
			return fiber.NewError(fiber.StatusBadRequest, "Yeni şifre en az 4 karakter olmalı")
		}

		var user models.User
		if err := database.DB.First(&user, "id = ?", actor.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
		}

		if !user.MustChangePassword {
			if body.OldPassword == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Eski şifre zorunlu")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.OldPassword)); err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "Eski şifre hatalı")
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		if err := database.DB.Model(&user).Updates(map[string]any{
			"password_hash":        string(hash),
			"must_change_password": false,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre güncellenemedi")
		}

		return c.JSON(fiber.Map{"message": "Şifre güncellendi"})
	}
}
