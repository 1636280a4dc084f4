package main

import (
	"flag"
	"log"

	"github.com/ukaddresskit/ukaddresskit/internal/config"
	"github.com/ukaddresskit/ukaddresskit/internal/web"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	config.LoadEnv()

	cfg := web.DefaultConfig()
	if *configFile != "" {
		loaded, err := web.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	server, err := web.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
