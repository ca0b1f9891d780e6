package authController

import (
	"coursehub/database"
	"coursehub/middleware"
	"coursehub/models"
	authValidator "coursehub/validators/auth"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLogins  = 3
	loginLockout     = time.Minute
	failedLoginReset = 15 * time.Minute
)

func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var admin models.AdminUser
	if err := db.Where("email = ?", reqData.Email).First(&admin).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if admin.IsBlocked {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
	}

	now := time.Now()
	if admin.LockedUntil != nil && admin.LockedUntil.After(now) {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is temporarily locked. Try again later.", nil)
	}

	if admin.LastFailedLogin != nil && now.Sub(*admin.LastFailedLogin) > failedLoginReset {
		admin.FailedLoginAttempts = 0
		admin.LastFailedLogin = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(reqData.Password)); err != nil {
		admin.FailedLoginAttempts++
		admin.LastFailedLogin = &now

		// Lock the account after repeated failures
		if admin.FailedLoginAttempts >= maxFailedLogins {
			until := now.Add(loginLockout)
			admin.LockedUntil = &until
			admin.FailedLoginAttempts = 0
		}

		if err := db.Save(&admin).Error; err != nil {
			log.Printf("Error saving failed login for admin %d: %v", admin.ID, err)
		}
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	admin.LastLogin = &now
	admin.FailedLoginAttempts = 0
	admin.LastFailedLogin = nil
	admin.LockedUntil = nil
	if err := db.Save(&admin).Error; err != nil {
		log.Printf("Error saving last login time: %v", err)
	}

	ip := c.IP()
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip = forwarded
	}

	loginTracking := models.LoginTracking{
		AdminID:   admin.ID,
		IPAddress: ip,
		Device:    c.Get("User-Agent"),
		Timestamp: now,
	}
	log.Printf("Admin %d logged in from IP: %s", admin.ID, loginTracking.IPAddress)

	if err := db.Create(&loginTracking).Error; err != nil {
		log.Printf("Error saving login tracking details: %v", err)
	}

	token, err := middleware.GenerateJWT(admin)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  admin,
		"token": token,
	})
}

// Me returns the authenticated account.
func Me(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile.", admin)
}

func LoginHistoryList(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedLoginHistory").(*authValidator.LoginHistoryQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	offset := (reqData.Page - 1) * reqData.Limit

	var history []models.LoginTracking
	var total int64

	db := database.Database.Db
	if err := db.Where("admin_id = ?", admin.ID).
		Order("timestamp desc").
		Offset(offset).
		Limit(reqData.Limit).
		Find(&history).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch login history!", nil)
	}

	db.Model(&models.LoginTracking{}).Where("admin_id = ?", admin.ID).Count(&total)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login History List.", fiber.Map{
		"loginTracking": history,
		"pagination": fiber.Map{
			"total": total,
			"page":  reqData.Page,
			"limit": reqData.Limit,
		},
	})
}
