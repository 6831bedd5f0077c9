package main

//go-build: CGO_ENABLED=0

import (
	"github.com/robotalks/uartcam/pkg/cli/sh"
	"github.com/robotalks/uartcam/pkg/serial"
)

func init() {
	serial.SetupFlags()
}

func main() {
	sh.Main()
}
