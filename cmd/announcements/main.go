package main

import (
	"fmt"
	"os"

	"github.com/imaginehigher/announcements/server/command"
)

func main() {
	if err := command.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
