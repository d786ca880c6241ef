package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"livepolls/internal/app/bootstrap"
)

// Repair process entrypoint: one reconciliation pass over the score ledger,
// then exit. Run it only while the API process is stopped; the ledger
// directory takes a single-process lock.
func main() {
	log.Println("livepolls repair starting")
	app, err := bootstrap.BuildRepair()
	if err != nil {
		log.Fatalf("bootstrap repair failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("repair shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("livepolls repair stopped with error: %v", err)
	}
	log.Println("livepolls repair finished")
}
