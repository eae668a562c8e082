package main

import (
	"log/slog"
	"os"
	"runtime/debug"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ssal crashed", "panic", r, "stack", string(debug.Stack()))
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
