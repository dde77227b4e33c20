package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/granthub/granthub-api/api"
	"github.com/granthub/granthub-api/config"
	"github.com/granthub/granthub-api/database"
	"github.com/granthub/granthub-api/router"
	"github.com/granthub/granthub-api/services"
	cronjobs "github.com/granthub/granthub-api/services/cron"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("If not running, run the following command:\n")
		print("  make docker-up   (for Docker setup)\n")
		print("  make db-up       (for local PostgreSQL)\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cronjobs.CronManager
	if os.Getenv("CRON_ENABLED") != "false" { // Default to enabled
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			emailService := services.NewEmailService()
			dispatcher := services.NewDispatcher(services.NewNotificationService(db), emailService, nil)
			cronManager = cronjobs.NewCronManager(db, dispatcher)
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
				// Don't fail the app, just log the warning
			}
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes (security middleware attaches there too)
	cleanup := router.SetupRoutes(app, store)
	defer cleanup()

	// Get the PORT & Start the Server
	return server.Run()

}
