package googleController

import (
	"coursehub/config"
	"coursehub/middleware"
	"coursehub/utils"
	"fmt"
	"html"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ConfigCheck reports which Google credentials are configured, without revealing them.
func ConfigCheck(c *fiber.Ctx) error {
	cfg := config.AppConfig
	present := fiber.Map{
		"clientId":     cfg.GoogleClientID != "",
		"clientSecret": cfg.GoogleClientSecret != "",
		"refreshToken": cfg.GoogleRefreshToken != "",
		"redirectUri":  cfg.GoogleRedirectURI != "",
	}

	if !cfg.HasGoogleCredentials() {
		return middleware.JsonResponse(c, fiber.StatusOK, false, "Google credentials are incomplete.", present)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Google credentials are configured.", present)
}

func htmlPage(c *fiber.Ctx, status int, title, body string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).SendString(fmt.Sprintf(
		`<html><body style="font-family: Arial, sans-serif; padding: 20px;"><h2>%s</h2>%s</body></html>`,
		html.EscapeString(title), body,
	))
}

// Callback completes the one-time OAuth consent and shows the refresh token to put in
// GOOGLE_REFRESH_TOKEN.
func Callback(c *fiber.Ctx) error {
	if errParam := c.Query("error"); errParam != "" {
		return htmlPage(c, fiber.StatusBadRequest, "Authorization failed",
			"<p>Google returned: "+html.EscapeString(errParam)+"</p>")
	}

	code := c.Query("code")
	if code == "" {
		return htmlPage(c, fiber.StatusBadRequest, "Missing authorization code",
			"<p>Start the consent flow again from the Google authorization URL.</p>")
	}

	tokens, err := utils.Drive.ExchangeCode(c.UserContext(), code)
	if err != nil {
		log.Printf("[GOOGLE] Code exchange failed: %v", err)
		return htmlPage(c, fiber.StatusInternalServerError, "Token exchange failed",
			"<p>"+html.EscapeString(err.Error())+"</p>")
	}

	if tokens.RefreshToken == "" {
		return htmlPage(c, fiber.StatusBadRequest, "No refresh token returned",
			"<p>Google only returns a refresh token on first consent. Revoke the app's access in your Google "+
				"account settings and authorize again with access_type=offline and prompt=consent.</p>")
	}

	return htmlPage(c, fiber.StatusOK, "Authorization complete",
		"<p>Set this value as GOOGLE_REFRESH_TOKEN and restart the server:</p><pre>"+
			html.EscapeString(tokens.RefreshToken)+"</pre>")
}
