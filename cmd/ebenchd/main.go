package main

import (
	"log"

	"github.com/NVIDIA/energy-benchmark/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		log.Fatal(err)
	}
}
