package auth

import (
	"depo-backend/internal/database"
	"depo-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Actor: isteği yapan kimlik. Token yerine veritabanındaki güncel kayıttan
// doldurulur; sonradan pasifleştirilen kullanıcı token süresi dolmadan da
// dışarıda kalır.
type Actor struct {
	ID         uint
	Name       string
	Login      string
	Role       models.UserRole
	LocationID *uint
}

func (a *Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

func ActorFromCtx(c *fiber.Ctx) (*Actor, error) {
	userIDVal := c.Locals(CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return nil, fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}
	if !user.Active {
		return nil, fiber.NewError(fiber.StatusForbidden, "Hesap pasif durumda")
	}

	return &Actor{
		ID:         user.ID,
		Name:       user.Name,
		Login:      user.Login,
		Role:       user.Role,
		LocationID: user.LocationID,
	}, nil
}
