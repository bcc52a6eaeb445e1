package httpapi

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/mcp-weather-server/internal/dispatch"
	"github.com/i474232898/mcp-weather-server/internal/stream"
)

// NewApp builds the Fiber app with middleware and all routes registered.
// Stream responses are not bounded by WriteTimeout: the body writer runs after
// the handler and the emitter ends every stream on its own.
func NewApp(dispatcher *dispatch.Dispatcher, emitter *stream.Emitter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		IdleTimeout:           60 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} - ${latency} ${method} ${path}?${queryParams}\n",
	}))
	app.Use(cors.New())

	RegisterRoutes(app, dispatcher, emitter)
	return app
}
