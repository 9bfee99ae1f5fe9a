package server

import (
	"time"

	"github.com/gaugyan/admin-api/internal/auth"
	"github.com/gaugyan/admin-api/internal/certificate"
	"github.com/gaugyan/admin-api/internal/middleware"
	"github.com/gaugyan/admin-api/internal/role"
	"github.com/gaugyan/admin-api/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "GauGyan admin API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	app.Use("/auth", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}))
	authGroup.Post("/register", auth.RegisterHandler)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)
	authGroup.Get("/google/login", auth.GoogleLogin)
	authGroup.Get("/google/callback", auth.GoogleCallback)
	authGroup.Post("/forgot-password", auth.ForgotPasswordHandler)
	authGroup.Post("/reset-password", auth.ResetPasswordHandler)
	authGroup.Post("/refresh", limiter.New(limiter.Config{
		Max:        3,
		Expiration: 5 * time.Minute,
	}), auth.RefreshHandler)
	authGroup.Post("/logout", auth.JWTProtected(), auth.LogoutHandler)

	// ==========================================
	// USER MANAGEMENT
	// ==========================================
	userGroup := app.Group("/users")
	userGroup.Use(auth.JWTProtected())
	userGroup.Post("/",
		middleware.PermissionProtected("Users", "create"),
		user.CreateUserHandler)
	userGroup.Get("/",
		middleware.PermissionProtected("Users", "view"),
		user.ListUsersHandler)
	userGroup.Get("/:id",
		middleware.PermissionProtected("Users", "view"),
		user.GetUserHandler)
	userGroup.Put("/:id",
		middleware.PermissionProtected("Users", "edit"),
		user.UpdateUserHandler)
	userGroup.Delete("/:id",
		middleware.PermissionProtected("Users", "delete"),
		user.DeleteUserHandler)

	// ==========================================
	// ROLE MANAGEMENT
	// ==========================================
	roleGroup := app.Group("/roles")
	roleGroup.Use(auth.JWTProtected())
	roleGroup.Post("/",
		middleware.PermissionProtected("Roles", "create"),
		role.CreateRoleHandler)
	roleGroup.Get("/",
		middleware.PermissionProtected("Roles", "view"),
		role.ListRolesHandler)
	roleGroup.Get("/:id",
		middleware.PermissionProtected("Roles", "view"),
		role.GetRoleHandler)
	roleGroup.Put("/:id",
		middleware.PermissionProtected("Roles", "edit"),
		role.UpdateRoleHandler)
	roleGroup.Put("/:id/permissions",
		middleware.PermissionProtected("Roles", "edit"),
		role.SetPermissionsHandler)
	roleGroup.Delete("/:id",
		middleware.PermissionProtected("Roles", "delete"),
		role.DeleteRoleHandler)
	roleGroup.Post("/assign",
		middleware.PermissionProtected("Users", "edit"),
		role.AssignRoleToUserHandler)

	// ==========================================
	// CERTIFICATE REGISTRY
	// ==========================================
	certGroup := app.Group("/v1/certificate")

	// Public verification lookup, rate-limited but unauthenticated.
	certGroup.Get("/verify/:serialNumber", limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), certificate.VerifyCertificateHandler)

	certGroup.Get("/settings",
		auth.JWTProtected(),
		middleware.PermissionProtected("Settings", "view"),
		certificate.GetSettingsHandler)
	certGroup.Put("/settings",
		auth.JWTProtected(),
		middleware.PermissionProtected("Settings", "edit"),
		certificate.SaveSettingsHandler)
	certGroup.Post("/generate",
		auth.JWTProtected(),
		middleware.PermissionProtected("Certificates", "create"),
		certificate.GenerateCertificateHandler)
	certGroup.Get("/",
		auth.JWTProtected(),
		middleware.PermissionProtected("Certificates", "view"),
		certificate.ListCertificatesHandler)
	certGroup.Post("/:serialNumber/revoke",
		auth.JWTProtected(),
		middleware.PermissionProtected("Certificates", "edit"),
		certificate.RevokeCertificateHandler)
}
