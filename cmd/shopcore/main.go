package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LukasBrandt/ShopCore/app/repository"
	"github.com/LukasBrandt/ShopCore/internal/pkg/config"
	"github.com/LukasBrandt/ShopCore/internal/pkg/database"
	"github.com/LukasBrandt/ShopCore/internal/pkg/env"
	"github.com/LukasBrandt/ShopCore/internal/pkg/router"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4100")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	if _, err := config.Load(); err != nil {
		panic(err)
	}

	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	if err := storage.Setup(); err != nil {
		panic(err)
	}

	// init fiber app. The body limit leaves room for a multi-file
	// upload form; the 10 MiB per-file bound is enforced per file in
	// the upload pipeline.
	app := fiber.New(fiber.Config{
		BodyLimit: 64 << 20, // 64 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
