package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Lianues/LeiNaoArena/internal/testbattles"
	"github.com/Lianues/LeiNaoArena/pkg/logger"
)

func main() {
	var (
		url     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		battles = flag.Int("battles", 1000, "Number of battles to run")
		turns   = flag.Int("turns", 3, "Conversation turns per battle before the verdict")
		workers = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent workers")
		timeout = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		output  = flag.String("output", "", "Output file for battle transcripts")
		logFile = flag.String("log", "", "Log file for test output")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		testbattles.ShowHelp()
		return
	}

	if err := testbattles.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config := &testbattles.Config{
		BaseURL:    *url,
		NumBattles: *battles,
		Turns:      *turns,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *output,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if err := testbattles.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "battle test failed", logger.Error(err))
		os.Exit(1)
	}
}
