package main

import (
	"os"

	"auction-analyzer/backend/cmd/auctionctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
