// Command sonata runs the Sonata media library.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sonata-music/sonata/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration file")
	flag.Parse()

	ctx := context.Background()

	application, err := app.New(ctx, app.Options{ConfigPath: *configPath})
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := application.Shutdown(); err != nil {
		application.Logger().Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
