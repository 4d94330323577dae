// Package main implements the entry point for the taskboard API server,
// which manages task records and pushes status-change notifications onto
// a durable work queue.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := newApplication(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.startHTTPServer(context.Background()); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
