package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("crawler failed", slog.Any("error", err))
		os.Exit(1)
	}
}
