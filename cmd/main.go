package main

import (
	"log"
	"os"

	"lpk-quiz-service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Printf("quiz-service: %v", err)
		os.Exit(1)
	}
}
