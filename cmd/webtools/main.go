package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/Skryldev/webtools/internal/cmd"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), cmd.NewRootCmd(version)); err != nil {
		os.Exit(1)
	}
}
