package httpapi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/mcp-weather-server/internal/dispatch"
	"github.com/i474232898/mcp-weather-server/internal/protocol"
	"github.com/i474232898/mcp-weather-server/internal/stream"
	"github.com/i474232898/mcp-weather-server/internal/tools"
)

const serviceName = "mcp-weather-server"

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage renders validator errors without Go type names, e.g.
// "query must be at most 1024 characters".
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}

		switch fe.Tag() {
		case "max":
			unit := "characters"
			if fe.Kind() == reflect.Slice {
				unit = "items"
			}
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s %s", field, fe.Param(), unit))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dispatcher *dispatch.Dispatcher, emitter *stream.Emitter) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	v1 := app.Group("/v1/mcp")

	v1.Post("/", func(c *fiber.Ctx) error {
		var req protocol.Request
		if err := c.BodyParser(&req); err != nil {
			return writeEnvelope(c, protocol.Failure(protocol.BadRequest("invalid request body")))
		}
		if err := validate.Struct(req); err != nil {
			return writeEnvelope(c, protocol.Failure(protocol.BadRequest(validationMessage(err))))
		}

		return writeEnvelope(c, dispatcher.Dispatch(c.UserContext(), req))
	})

	v1.Get("/tools", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tools": tools.Definitions()})
	})

	messages := func(c *fiber.Ctx) error {
		// Copied: the frames are produced after the handler returns.
		sessionID := utils.CopyString(c.Query("session_id"))
		if sessionID == "" {
			return writeEnvelope(c, protocol.Failure(protocol.BadRequest("session_id is required")))
		}
		streamFrames(c, emitter, sessionID)
		return nil
	}
	v1.Get("/messages", messages)
	v1.Post("/messages", messages)
}

func writeEnvelope(c *fiber.Ctx, env protocol.Envelope) error {
	return c.Status(env.HTTPStatus()).JSON(env)
}

// streamFrames answers with an event stream fed by the emitter. The body is
// written after the handler returns, so the writer must not touch c.
func streamFrames(c *fiber.Ctx, emitter *stream.Emitter, sessionID string) {
	c.Set(fiber.HeaderContentType, "text/event-stream; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")
	c.Context().Response.SetConnectionClose()

	// Detached from the request: an upstream call already started is allowed
	// to finish even if the client leaves.
	frames := emitter.Connect(context.Background(), sessionID)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for frame := range frames {
			if _, err := w.Write(frame.Encode()); err != nil {
				slog.Info("stream: write failed, stopping", "session", sessionID, "error", err)
				return
			}
			if err := w.Flush(); err != nil {
				slog.Info("stream: client disconnected", "session", sessionID, "error", err)
				return
			}
		}
	}))
}

// ErrorHandler renders every error that escapes a handler (unknown routes,
// panics caught by the recover middleware) as an error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	mapped := protocol.NewError(protocol.KindInternalError, "internal error")

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code >= fiber.StatusBadRequest && fe.Code < fiber.StatusInternalServerError {
		mapped = protocol.BadRequest(fe.Message)
		return c.Status(fe.Code).JSON(protocol.Failure(mapped))
	}

	slog.ErrorContext(c.UserContext(), "http: unhandled error", "path", c.Path(), "error", err)
	return c.Status(mapped.Kind.HTTPStatus()).JSON(protocol.Failure(mapped))
}
