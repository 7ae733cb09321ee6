package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"cellardoor/internal/config"
	"cellardoor/internal/http/handlers"
	applog "cellardoor/internal/log"
	"cellardoor/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Hourly cleanup of snapshots past the recovery window.
	snaps := repos.NewSnapshotRepo(db)
	go func() {
		for range time.Tick(time.Hour) {
			if n, err := snaps.PurgeOlderThan(time.Now().Add(-cfg.SnapshotTTL())); err != nil {
				log.Printf("[warn] snapshot purge failed: %v", err)
			} else if n > 0 {
				applog.Info(nil, "snapshots.purged", map[string]any{"count": n})
			}
		}
	}()

	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- Static assets ----------
	app.Static("/static", "./web/static")

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg)

	// Club pages
	app.Get("/", deps.ClubHandler.Home)
	app.Get("/club/:id", deps.ClubHandler.Detail)

	// Wizard API
	wz := deps.WizardHandler
	api := app.Group("/api/v1/wizard", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|wizard"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Warn(c, "rate.wizard.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))
	api.Post("/start", wz.Start)
	api.Get("/", wz.State)
	api.Post("/case-size", wz.SelectCaseSize)
	api.Post("/plan", wz.SelectPlan)
	api.Post("/quantity", wz.SetQuantity)
	api.Post("/next", wz.Next)
	api.Post("/previous", wz.Previous)
	api.Post("/step", wz.GoToStep)
	api.Post("/validate", wz.Validate)
	api.Post("/reset", wz.Reset)
	api.Post("/cart", wz.Cart)
	api.Post("/exit", wz.Exit)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
