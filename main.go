package main

import (
	"coursehub/config"
	"coursehub/database"
	authRoutes "coursehub/routers/authRoutes"
	catalogRoutes "coursehub/routers/catalogRoutes"
	contentRoutes "coursehub/routers/contentRoutes"
	draftRoutes "coursehub/routers/draftRoutes"
	googleRoutes "coursehub/routers/googleRoutes"
	uploadRoutes "coursehub/routers/uploadRoutes"
	"coursehub/utils"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp builds the fiber app with every route registered.
func SetupApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	catalogRoutes.SetupCatalogRoutes(app)
	catalogRoutes.SetupAdminCatalogRoutes(app)
	contentRoutes.SetupContentRoutes(app)
	uploadRoutes.SetupUploadRoutes(app)
	draftRoutes.SetupDraftRoutes(app)
	googleRoutes.SetupGoogleRoutes(app)

	return app
}

func main() {
	config.LoadConfig()
	database.ConnectDb()

	cfg := config.AppConfig
	db := database.Database.Db

	store := utils.InitStore(cfg.RedisURL)
	utils.Drafts = utils.NewDraftStore(store, cfg.DraftTTL)
	utils.YouTube = utils.NewYouTubeClient(cfg.YouTubeOEmbedURL, store, cfg.OEmbedCacheTTL)
	utils.Drive = utils.NewDriveClient(cfg)

	utils.Uploads = utils.NewUploadWorker(
		db,
		utils.Drive,
		utils.NewChunkedUploader(cfg.UploadChunkSize),
		utils.NewNotifier(cfg.SendGridAPIKey, cfg.EmailSender),
		64,
	)
	if err := utils.Uploads.Recover(); err != nil {
		log.Printf("Warning: failed to recover uploads: %v", err)
	}
	utils.Uploads.Start()

	janitor := utils.InitializeUploadJanitor(db, cfg.UploadStaleAfter, cfg.UploadRetention)

	app := SetupApp()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		<-janitor.Stop().Done()
		utils.Uploads.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
