package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	fx "github.com/robotalks/uartcam/pkg/framework"
	"github.com/robotalks/uartcam/pkg/station"
)

func init() {
	station.SetupFlags()
}

func main() {
	flag.Parse()

	env, err := station.NewConfig().NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	defer env.Close()
	if err = fx.NewRunner().HandleSignals().Go(env).Wait(); err != nil {
		log.Fatalln(err)
	}
}
