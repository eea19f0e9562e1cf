package main

import (
	"github.com/mchmarny/rimecast/pkg/cli"
)

func main() {
	cli.Execute()
}
