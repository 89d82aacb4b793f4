package main

import (
	"log"

	"felixplore/internal/activities"
	"felixplore/internal/config"
	"felixplore/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg))

	log.Printf("felixplore worker listening on %s queue=%s table=%q", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.Table)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
