package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/dialectic/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		// Errors go to stdout as JSON so callers parsing output see them
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Println(string(out))
		stop()
		os.Exit(1)
	}
}
