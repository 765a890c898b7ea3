package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// NewApp creates the fiber application with the handler's routes mounted.
func NewApp(cfg Config, handler *TableHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "xltable",
		BodyLimit: cfg.BodyLimit,
	})
	handler.Register(app)
	return app
}

func registerLifecycle(lc fx.Lifecycle, app *fiber.App, cfg Config, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			log.Info("listening", "addr", ln.Addr().String())
			go func() {
				if err := app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					log.Error("server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// Module provides the handler and the fiber application and starts serving
// with the fx lifecycle. It expects a Config and a *slog.Logger.
func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(
			fx.Annotate(NewReader, fx.As(new(TableReader))),
			NewTableHandler,
			NewApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

// New builds the server application.
func New(cfg Config, log *slog.Logger) *fx.App {
	return fx.New(
		fx.Supply(cfg, log),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),
		Module(),
	)
}

// Run serves until the process is interrupted.
func Run(cfg Config, log *slog.Logger) error {
	app := New(cfg, log)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}
