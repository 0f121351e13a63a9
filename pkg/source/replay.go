package source

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// Replay feeds recorded notifications (one JSON object per line) through
// the engine. Used by the replay command and integration tests.
type Replay struct {
	r io.Reader

	mu      sync.Mutex
	count   int
	skipped int
	done    chan struct{}
	started bool
}

// NewReplay creates a replay adapter reading JSONL notifications from r.
func NewReplay(r io.Reader) *Replay {
	return &Replay{
		r:    r,
		done: make(chan struct{}),
	}
}

// Start reads the stream in a background goroutine, forwarding enabled
// notifications to ingest. Malformed lines and disabled types are counted
// and skipped, never fatal.
func (r *Replay) Start(enabled []types.EventType, ingest IngestFunc) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	allowed := make(map[types.EventType]bool, len(enabled))
	for _, t := range enabled {
		allowed[t] = true
	}

	logger := log.WithComponent("replay")

	go func() {
		defer close(r.done)

		scanner := bufio.NewScanner(r.r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			var n Notification
			if err := json.Unmarshal([]byte(text), &n); err != nil {
				logger.Warn().Err(err).Int("line", line).Msg("skipping malformed notification")
				r.mu.Lock()
				r.skipped++
				r.mu.Unlock()
				continue
			}
			if !allowed[n.Type] {
				r.mu.Lock()
				r.skipped++
				r.mu.Unlock()
				continue
			}

			ingest(n)
			r.mu.Lock()
			r.count++
			r.mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			logger.Error().Err(err).Msg("replay stream read failed")
		}
	}()

	return nil
}

// Stop is a no-op for replay; the stream runs to completion.
func (r *Replay) Stop() error {
	return nil
}

// Done is closed once the stream has been fully consumed.
func (r *Replay) Done() <-chan struct{} {
	return r.done
}

// Count returns the number of notifications forwarded so far.
func (r *Replay) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Skipped returns the number of lines dropped (malformed or disabled type).
func (r *Replay) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}
