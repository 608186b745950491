package main

import (
	"github.com/partyrelay/partyrelay/internal/cli"
)

func main() {
	cli.Execute()
}
