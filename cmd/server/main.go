package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/moodjournal/internal/server"
	"github.com/dmitrijs2005/moodjournal/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
