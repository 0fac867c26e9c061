package api

import (
	"errors"
	"net/http"

	"leilao-insights/docs"
	"leilao-insights/internal/api/handlers"
	"leilao-insights/pkg/auth"
	"leilao-insights/pkg/config"
	"leilao-insights/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// Handlers groups the route handlers. Reports and Metrics are optional.
type Handlers struct {
	Wizard  *handlers.WizardHandler
	Reports *handlers.ReportHandler
	Health  *handlers.HealthHandler
	Metrics http.Handler
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	cfg *config.ServerConfig,
	appLogger *zap.Logger,
) *fiber.App {
	// Immutable: parsed values are stored in sessions that outlive the request.
	app := fiber.New(fiber.Config{
		Immutable:    true,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    (cfg.MaxUploadMB + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders: middleware.RefreshHeader,
	}))
	app.Use(logger.New())

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	if h.Health != nil {
		app.Get("/api/health", h.Health.Health)
	}
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(h.Metrics))
	}

	v1 := app.Group("/api/v1")

	// Wizard routes; everything but creation needs the session token.
	wizards := v1.Group("/wizards")
	wizards.Post("", h.Wizard.Create)

	session := middleware.SessionAuth(jwtManager, appLogger)
	wizards.Get("/:id", session, h.Wizard.Get)
	wizards.Delete("/:id", session, h.Wizard.Discard)
	wizards.Put("/:id/url", session, h.Wizard.SetURL)
	wizards.Post("/:id/extract", session, h.Wizard.Extract)
	wizards.Post("/:id/next", session, h.Wizard.Next)
	wizards.Post("/:id/previous", session, h.Wizard.Previous)
	wizards.Patch("/:id/property", session, h.Wizard.EditProperty)
	wizards.Post("/:id/uploads", session, h.Wizard.AddUploads)
	wizards.Delete("/:id/uploads/:uploadId", session, h.Wizard.RemoveUpload)
	wizards.Delete("/:id/notice", session, h.Wizard.DismissNotice)
	wizards.Post("/:id/submit", session, h.Wizard.Submit)
	wizards.Get("/:id/review", session, h.Wizard.Review)
	wizards.Get("/:id/report.pdf", session, h.Wizard.ReportPDF)

	// Archived reports
	if h.Reports != nil {
		reports := v1.Group("/reports")
		reports.Get("", h.Reports.ListReports)
		reports.Get("/:id", h.Reports.GetReport)
		reports.Get("/:id/pdf", h.Reports.ReportPDF)
	} else {
		appLogger.Info("Report archive disabled, /api/v1/reports not mounted")
	}

	return app
}
