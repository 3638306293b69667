// pulsetest is a manual verification tool: it binds a fixed identity against
// a live push endpoint and prints every state change and toast to stdout.
//
// Usage:
//
//	pulsetest -url wss://push.lumina.example/socket -key $API_KEY -user 7 -teams 10,11
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luminacrm/pulse/internal/binding"
	"github.com/luminacrm/pulse/internal/connection"
	"github.com/luminacrm/pulse/internal/identity"
	"github.com/luminacrm/pulse/internal/router"
	"github.com/luminacrm/pulse/internal/sink"
	"github.com/luminacrm/pulse/internal/toast"
)

func main() {
	var (
		url      = flag.String("url", "", "push endpoint URL (required)")
		apiKey   = flag.String("key", "", "api key (required)")
		userID   = flag.String("user", "", "user id to identify as (required)")
		unitIDs  = flag.String("units", "", "comma-joined unit ids")
		teamIDs  = flag.String("teams", "", "comma-joined team ids")
		brandIDs = flag.String("brands", "", "comma-joined brand ids")
		duration = flag.Duration("duration", 0, "exit after this long (0 = run until interrupted)")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *url == "" || *apiKey == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: pulsetest -url URL -key KEY -user ID [-units ...] [-teams ...] [-brands ...]")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	surface := &stdoutSurface{}
	notifier := sink.New(surface, sink.Options{}, logger)
	table := notifier.Table()
	dispatcher := router.NewDispatcher(logger)

	manager := connection.NewManager(connection.ManagerConfig{
		URL:               *url,
		APIKey:            *apiKey,
		ReconnectDelay:    connection.DefaultManagerConfig().ReconnectDelay,
		ReconnectAttempts: connection.DefaultManagerConfig().ReconnectAttempts,
		HandshakeTimeout:  10 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        256,
	}, connection.Hooks{
		OnEvent: func(env router.Envelope) {
			fmt.Printf("event  %-16s id=%s ts=%s\n", env.EventType, env.ID, env.Timestamp)
			dispatcher.Dispatch(env, table)
		},
		OnConnect:    func() { fmt.Println("state  connected") },
		OnIdentified: func() { fmt.Println("state  identified") },
		OnConnectError: func(err error) {
			fmt.Printf("state  connect error: %v\n", err)
		},
		OnError: func(err error) {
			fmt.Printf("state  error: %v\n", err)
		},
	}, logger)

	id := identity.Identity{UserID: *userID}
	if s, ok := identity.NormalizeScope(*unitIDs); ok {
		id.UnitIDs = s
	}
	if s, ok := identity.NormalizeScope(*teamIDs); ok {
		id.TeamIDs = s
	}
	if s, ok := identity.NormalizeScope(*brandIDs); ok {
		id.BrandIDs = s
	}

	store := identity.NewStaticStore(&id)
	fmt.Printf("binding user=%s units=%q teams=%q brands=%q\n", id.UserID, id.UnitIDs, id.TeamIDs, id.BrandIDs)

	if err := binding.New(store, manager, logger).Run(ctx); err != nil {
		logger.Error("binding exited", "error", err)
		os.Exit(1)
	}

	stats := manager.Stats()
	fmt.Printf("done   connects=%d reconnects=%d identifies=%d events=%d\n",
		stats.Connects, stats.Reconnects, stats.Identifies, stats.Events)
}

// stdoutSurface prints toasts as they would appear in the console.
type stdoutSurface struct{}

func (s *stdoutSurface) Show(message string, opts toast.Options) {
	fmt.Printf("toast  [%s] %s\n", opts.Severity, message)
}
