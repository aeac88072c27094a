package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/an-thony350/multithread-chat-app/internal/chat"
	"github.com/an-thony350/multithread-chat-app/internal/config"
	"github.com/an-thony350/multithread-chat-app/internal/transport/udp"
)

// App wires the chat core to its UDP transport.
type App struct {
	conn    *udp.Conn
	server  *udp.Server
	monitor *chat.Monitor
	log     *zerolog.Logger
}

// New opens the listening socket and builds the registry, history,
// router, handler and monitor around it. A socket that cannot be bound is
// the one fatal startup condition.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	conn, err := udp.Open(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("open socket: %w", err)
	}

	registry := chat.NewRegistry(cfg.MaxClients, cfg.MaxMutes)
	history := chat.NewHistory(cfg.HistoryCapacity)
	router := chat.NewRouter(registry, history, conn, logger)
	handler := chat.NewHandler(registry, router, cfg.AdminPort, cfg.MaxNameLen, logger)
	monitor := chat.NewMonitor(registry, router, cfg.MonitorInterval, cfg.InactivityThreshold, cfg.ProbeTimeout, logger)

	return &App{
		conn:    conn,
		server:  udp.NewServer(conn, handler, logger),
		monitor: monitor,
		log:     logger,
	}, nil
}

// Run starts the monitor and the receive loop and blocks until ctx is
// canceled or the socket fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		a.monitor.Run(ctx)
	}()

	err := a.server.Serve(ctx)

	cancel()
	<-monitorDone
	return err
}
