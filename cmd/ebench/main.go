package main

import (
	"github.com/NVIDIA/energy-benchmark/pkg/cli"
)

func main() {
	cli.Execute()
}
