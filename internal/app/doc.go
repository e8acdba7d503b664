// Package app wires the aggregation service together: telemetry, the
// aggregation and health services, the chi router with its middleware chain,
// and the HTTP server.
//
// # Usage
//
//	cfg, err := config.Load()
//	logger, err := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.New(cfg, logger)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err = application.Run(ctx)
//
// Run returns once ctx is cancelled and the server has drained within
// Server.ShutdownTimeout. The package never calls os.Exit.
package app
