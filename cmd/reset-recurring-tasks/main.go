package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/chores_backend/config"
	"bitbucket.org/mmdatafocus/chores_backend/workflow"
)

// Manual trigger for the daily recurring task reset. Safe to run while the
// API is up: the same redis lock guards both, so one caller wins and the
// other reports zero resets.
func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "Abort the run after this long")
	skipRedis := flag.Bool("skip-redis", false, "Run without the redis reset lock (single-operator use only)")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if !*skipRedis {
		config.ConnectRedisWithRetry()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	count, err := workflow.ResetRecurringTasks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reset %d recurring tasks\n", count)
}
