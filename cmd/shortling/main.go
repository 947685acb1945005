package main

import (
	"log"

	"github.com/patric-chuzhbe/shortling/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("unable to initialize the application: %v", err)
	}
	defer application.Close()

	if err := application.Run(); err != nil {
		log.Fatalf("application terminated: %v", err)
	}
}
