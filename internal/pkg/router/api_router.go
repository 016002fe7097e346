package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/LukasBrandt/ShopCore/app/controllers"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	v1 := api.Group("/v1")
	v1.Post("/products/:id/images", controllers.HandleUploadProductImages)
	v1.Get("/products/:id/images", controllers.HandleListProductImages)
	v1.Get("/stats", controllers.HandleStats)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
