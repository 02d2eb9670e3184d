package main

import (
	"errors"
	"log"
	"strings"

	"depo-backend/internal/admin"
	"depo-backend/internal/apperr"
	"depo-backend/internal/audit"
	"depo-backend/internal/auth"
	"depo-backend/internal/clock"
	"depo-backend/internal/config"
	"depo-backend/internal/database"
	"depo-backend/internal/ledger"
	"depo-backend/internal/models"
	"depo-backend/internal/transfer"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	if err := clock.SetTimezone(cfg.Timezone); err != nil {
		log.Fatalf("Geçersiz TIMEZONE değeri %q: %v", cfg.Timezone, err)
	}
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// servis katmanının çekirdek hataları önce HTTP'ye çevrilir
			var ae *apperr.Error
			if errors.As(err, &ae) {
				err = apperr.ToFiber(err)
			}
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/auth/change-password", auth.ChangePasswordHandler())

	// Depo listesi (transfer hedefi seçimi için herkese açık)
	protected.Get("/locations", admin.ListActiveLocationsHandler())

	// Stok defteri
	protected.Post("/ops", ledger.RecordOperationHandler())
	protected.Get("/items", ledger.ListItemsHandler())
	protected.Patch("/items/:id", ledger.RenameItemHandler())
	protected.Delete("/items/:id", ledger.DeleteItemHandler())
	protected.Get("/items/:id/history", ledger.ItemHistoryHandler())

	// Transferler
	protected.Post("/transfers", transfer.CreateTransferHandler())
	protected.Get("/transfers/incoming", transfer.ListIncomingHandler())
	protected.Get("/transfers/outgoing", transfer.ListOutgoingHandler())
	protected.Get("/transfers/updates", transfer.ListUpdatesHandler())
	protected.Get("/transfers/:id", transfer.GetTransferHandler())
	protected.Post("/transfers/:id/accept", transfer.AcceptTransferHandler())
	protected.Post("/transfers/:id/reject", transfer.RejectTransferHandler())

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Depo yönetimi
	adminRoutes.Post("/locations", admin.CreateLocationHandler())
	adminRoutes.Get("/locations", admin.ListLocationsHandler())
	adminRoutes.Patch("/locations/:id", admin.RenameLocationHandler())
	adminRoutes.Delete("/locations/:id", admin.DeleteLocationHandler())

	// Kullanıcı yönetimi
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Delete("/users/:id", admin.DeactivateUserHandler())
	adminRoutes.Post("/users/:id/reset-password", admin.ResetPasswordHandler())

	// Raporlama
	protected.Get("/report", auth.RequireRole(models.RoleAdmin), admin.ReportHandler())
	protected.Get("/report/export", auth.RequireRole(models.RoleAdmin), admin.ReportExportHandler())

	// Audit logs
	protected.Get("/audit-logs", auth.RequireRole(models.RoleAdmin), audit.ListAuditLogsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
