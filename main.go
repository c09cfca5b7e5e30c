package main

import (
	"log"

	"github.com/git-autobot/git-autobot/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("git-autobot: %v", err)
	}
}
