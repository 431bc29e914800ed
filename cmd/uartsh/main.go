package main

import (
	"github.com/robotalks/uart.go/pkg/cli/sh"
)

func main() {
	sh.Main()
}
