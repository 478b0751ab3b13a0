package main

import (
	"fmt"
	"os"

	"github.com/beetlebot/booking-cli/cmd/booking/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
