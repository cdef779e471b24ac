package main

import (
	"flag"
	"log"

	"sapsan-irt/core/appbootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()
	if err := appbootstrap.Run(*configPath); err != nil {
		log.Fatal(err)
	}
}
