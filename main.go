// main is the entry point for the hypeplot CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/hypeplot/cmd"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd.SetCacheManager(iocache.Manager)
	err := cmd.ExecuteContext(ctx)

	if perr := cmd.StopProfiling(); perr != nil {
		contract.LogWarn("Profiling", perr)
	}
	iocache.CloseCaching()
	stop()

	if err != nil {
		contract.LogFatal("hypeplot", err)
	}
}
