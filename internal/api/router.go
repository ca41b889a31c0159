package api

import (
	"eventflow-relay/docs"
	"eventflow-relay/internal/api/handlers"
	"eventflow-relay/internal/dto"
	"eventflow-relay/internal/service"
	"eventflow-relay/pkg/config"
	"eventflow-relay/pkg/metrics"
	"eventflow-relay/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	RouteVoiceStart    = "/webhook/voice/start"
	RouteRecording     = "/webhook/voice/recording"
	RouteTranscription = "/webhook/voice/transcription"
	RouteSMS           = "/webhook/sms"
)

// VoiceRoutes are the callback paths handed to the provider in the greeting TwiML.
func VoiceRoutes() service.VoiceRoutes {
	return service.VoiceRoutes{
		Recording:     RouteRecording,
		Transcription: RouteTranscription,
	}
}

func SetupRouter(
	serverCfg *config.ServerConfig,
	webhookHandler *handlers.WebhookHandler,
	m *metrics.Metrics,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "eventflow-relay",
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: msg})
		},
	})

	// Middleware
	app.Use(middleware.RequestLogger(appLogger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// importing docs registers the swagger document
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/", handlers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	// Provider webhooks
	app.Post(RouteVoiceStart, webhookHandler.VoiceStart)
	app.Post(RouteRecording, webhookHandler.Recording)
	app.Post(RouteTranscription, webhookHandler.Transcription)
	app.Post(RouteSMS, webhookHandler.SMS)

	return app
}
