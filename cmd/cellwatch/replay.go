package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/monitor"
	"github.com/cellwatch/cellwatch/pkg/source"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// runReplay feeds a JSONL notification file through the full pipeline with
// a counting subscriber on every type, then prints the resulting
// statistics.
func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	replay := source.NewReplay(f)
	engine := monitor.New(cfg, monitor.WithAdapter(replay))

	var delivered atomic.Int64
	_, err = engine.Subscribe(
		[]types.EventType{types.EventTypeAll},
		types.HandlerFunc(func(e *types.Event) error {
			delivered.Add(1)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	if err := engine.Initialize(); err != nil {
		return err
	}

	<-replay.Done()
	// Let trailing debounce timers fire before reading the counters.
	time.Sleep(2*cfg.Debounce() + 50*time.Millisecond)

	summary := struct {
		Notifications int              `json:"notifications"`
		Skipped       int              `json:"skipped"`
		Deliveries    int              `json:"deliveries"`
		Statistics    types.Statistics `json:"statistics"`
	}{
		Notifications: replay.Count(),
		Skipped:       replay.Skipped(),
		Deliveries:    int(delivered.Load()),
		Statistics:    engine.Statistics(),
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	return engine.Cleanup()
}
