package main

import (
	"github.com/joho/godotenv"

	"evalpilot/internal/cli"
)

func main() {
	// Optional: API keys usually live in .env during development.
	_ = godotenv.Load()

	cli.Execute()
}
