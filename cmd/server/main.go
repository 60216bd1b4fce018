package main

import (
	"context"
	"log"

	"github.com/Skotchmaster/marketplace/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
