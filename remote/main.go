package main

import (
	"log"

	"github.com/derktes/ir-blaster-bridge/remote/remote"
)

func main() {
	if err := remote.Start(); err != nil {
		log.Fatal(err)
	}
}
