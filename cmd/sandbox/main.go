package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"

	"github.com/zeusync/sandbox/internal/config"
	"github.com/zeusync/sandbox/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	profileMode := flag.String("profile", "", "profile mode: cpu, mem, block, mutex, goroutine or trace")
	flag.Parse()

	if err := run(*configPath, *profileMode); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox:", err)
		os.Exit(1)
	}
}

func run(configPath, profileMode string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if profileMode != "" {
		cfg.Profile = profileMode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if p := startProfile(cfg.Profile); p != nil {
		defer p.Stop()
	}

	a, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}

func startProfile(mode string) interface{ Stop() } {
	var option func(*profile.Profile)
	switch mode {
	case "cpu":
		option = profile.CPUProfile
	case "mem":
		option = profile.MemProfileAllocs
	case "block":
		option = profile.BlockProfile
	case "mutex":
		option = profile.MutexProfile
	case "goroutine":
		option = profile.GoroutineProfile
	case "trace":
		option = profile.TraceProfile
	default:
		return nil
	}
	return profile.Start(option, profile.ProfilePath("."), profile.NoShutdownHook)
}
