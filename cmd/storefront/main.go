package main

import (
	"context"
	"time"

	"github.com/drstein77/storefront/internal/app"
)

func main() {
	const shutdownTimeout = 5 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Serve blocks until an interrupt arrives, then the server drains
	server := app.NewServer(ctx)
	server.Serve()
	server.Shutdown(shutdownTimeout)
}
