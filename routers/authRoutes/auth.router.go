package authRoutes

import (
	authControllers "coursehub/controllers/auth"
	"coursehub/middleware"
	authValidators "coursehub/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, middleware.RequireAdmin(), authControllers.Me)
	authGroup.Get("/login/history", middleware.JWTMiddleware, middleware.RequireAdmin(), authValidators.LoginHistoryList(), authControllers.LoginHistoryList)
}
