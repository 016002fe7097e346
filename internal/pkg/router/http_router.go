package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Serve uploaded assets under the public mount. The same files the
	// reconcile tool treats as ground truth.
	app.Static(storage.PublicMount, storage.Default().Root(), fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
