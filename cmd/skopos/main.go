package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mtzanidakis/skopos/internal/archive"
	"github.com/mtzanidakis/skopos/internal/bus"
	"github.com/mtzanidakis/skopos/internal/catalog"
	"github.com/mtzanidakis/skopos/internal/config"
	"github.com/mtzanidakis/skopos/internal/mission"
	"github.com/mtzanidakis/skopos/internal/stream"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("skopos %s\n", version)
	case "watch":
		if err := runWatch(os.Args[2:]); err != nil {
			slog.Error("watch failed", "error", err)
			os.Exit(1)
		}
	case "missions":
		if err := runMissions(); err != nil {
			slog.Error("missions failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: skopos <command>\n\nCommands:\n  watch <task>    Submit a task and follow the mission stream\n  missions        List archived missions\n  version         Print version\n")
}

func runWatch(args []string) error {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: skopos watch <task>\n")
		return fmt.Errorf("missing task")
	}
	task := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Server.URL == "" {
		return fmt.Errorf("server url not configured (set server.url or SKOPOS_SERVER_URL)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if cfg.Catalog.Watch {
		if err := cat.Watch(ctx); err != nil {
			slog.Warn("catalog watch unavailable", "error", err)
		}
	}
	slog.Info("catalog loaded", "path", cfg.Catalog.Path, "agents", cat.Len())

	missionID := uuid.NewString()
	store := mission.NewStore(missionID, task)

	transport, err := buildTransport(cfg.Server, task)
	if err != nil {
		return err
	}

	mgr := stream.NewManager(transport, store, stream.Config{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		BaseDelay:   cfg.Reconnect.BaseDelay,
	})

	var relay *bus.Relay
	if cfg.Bus.Enabled {
		var client *bus.Client
		if cfg.Bus.URL != "" {
			// Join an already-running bus rather than embedding one.
			client, err = bus.NewClientFromURL(cfg.Bus.URL)
			if err != nil {
				return fmt.Errorf("bus client: %w", err)
			}
			slog.Info("bus joined", "url", cfg.Bus.URL)
		} else {
			b, err := bus.New(cfg.Bus)
			if err != nil {
				return fmt.Errorf("init bus: %w", err)
			}
			defer b.Close()

			client, err = bus.NewClient(b)
			if err != nil {
				return fmt.Errorf("bus client: %w", err)
			}
			slog.Info("bus started", "port", b.Port())
		}
		defer client.Close()

		relay = bus.NewRelay(client, missionID)
		mgr.OnEvent = relay.PublishEvent
	}

	// Log agent transitions as they arrive; the catalog supplies names.
	last := make(map[string]mission.AgentState)
	_, unsubscribe := store.Subscribe(func(m mission.Mission) {
		for id, st := range m.Agents {
			if last[id] == st {
				continue
			}
			last[id] = st
			name := id
			if a, ok := cat.Get(id); ok {
				name = a.Name
			}
			slog.Info("agent", "name", name, "status", st.Status, "action", st.Action)
		}
	})
	defer unsubscribe()

	if err := mgr.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer mgr.Close()

	if cfg.Server.Transport == "websocket" {
		go submitWhenConnected(ctx, mgr, task)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		slog.Info("cancelling mission", "mission", missionID)
		mgr.Cancel()
		<-mgr.Done()
	case <-mgr.Done():
	}

	final := store.Snapshot()
	slog.Info("mission finished", "mission", missionID, "status", final.Status,
		"messages", len(final.Transcript), "artifacts", len(final.Artifacts))
	if relay != nil {
		relay.PublishStatus(final.Status)
	}

	if cfg.Archive.Enabled && final.Status != mission.StatusActive {
		arch, err := archive.New(cfg.Archive)
		if err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
		defer arch.Close()
		if err := arch.Record(final); err != nil {
			return fmt.Errorf("archive mission: %w", err)
		}
	}

	if final.Status == mission.StatusFailed {
		return fmt.Errorf("mission failed: %s", final.LastError)
	}
	return nil
}

func buildTransport(cfg config.ServerConfig, task string) (stream.Transport, error) {
	switch cfg.Transport {
	case "sse":
		return stream.NewSSETransport(cfg.URL)
	case "post":
		return stream.NewPostTransport(cfg.URL, stream.SubmitRequest{Message: task})
	case "websocket":
		return stream.NewSocketTransport(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// submitWhenConnected sends the task once the websocket is up. The SSE and
// POST transports carry the task in the connection itself.
func submitWhenConnected(ctx context.Context, mgr *stream.Manager, task string) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-mgr.Done():
			return
		case <-ticker.C:
			if mgr.State() == stream.StateConnected {
				if err := mgr.Submit(task, nil); err != nil {
					slog.Warn("submit failed", "error", err)
				}
				return
			}
		}
	}
}

func runMissions() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	arch, err := archive.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("init archive: %w", err)
	}
	defer arch.Close()

	records, err := arch.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no archived missions")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %-9s  %3d msgs  %2d artifacts  %s\n",
			r.ArchivedAt.Format(time.DateTime), r.Status, r.Messages, r.Artifacts, r.Title)
	}
	return nil
}
