package main

import (
	"os"

	"personalblog/service"
)

var exit = os.Exit

func main() {
	exit(service.Execute())
}
