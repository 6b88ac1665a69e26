package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/voluzi/rtst/cmd/rtst/cmd"
)

func main() {
	cmd.Execute()
}
