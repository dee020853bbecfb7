package main

import (
	"log"

	approuters "github.com/yanditv/api-app/internal/app_routers"
	"github.com/yanditv/api-app/internal/configuration"
)

func main() {
	container, err := configuration.BuildContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
