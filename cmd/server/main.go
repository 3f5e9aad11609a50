package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/strongholder/internal/server"
	"github.com/dmitrijs2005/strongholder/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		return
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	app.Run(ctx)

}
