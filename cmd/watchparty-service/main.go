// Package main is the watchparty-service entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/psds-microservice/watchparty-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
