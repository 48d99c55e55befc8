package main

import (
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"pr-timeline/config"
	"pr-timeline/logging"
	"pr-timeline/web"
)

func main() {
	var port string
	flag.StringVar(&port, "port", "8080", "Port to run the server on")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		if errors.Is(err, config.ErrNotConfigured) {
			fmt.Println("❌ Not configured. Set BITBUCKET_ORGANIZATION and BITBUCKET_PROJECT, e.g. in a .env file.")
			os.Exit(1)
		}
		stdlog.Fatalf("cannot initialize config: %v", err)
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		stdlog.Fatalf("cannot initialize logger: %v", err)
	}
	defer log.Sync()

	server := web.NewServer(cfg, log)
	if err := server.Start(port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
