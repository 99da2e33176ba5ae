package main

import (
	"log"

	tool "go-domain-routing-service/internal/tools/edgecheck"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
