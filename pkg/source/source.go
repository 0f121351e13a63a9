// Package source defines the boundary between the document host and the
// engine: adapters translate host change callbacks into canonical
// notifications and feed them to the engine's ingestion entrypoint.
package source

import (
	"encoding/json"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// Notification is a raw change report from a document host, before the
// engine assigns an ID and ingestion timestamp.
type Notification struct {
	Type           types.EventType `json:"type"`
	Source         string          `json:"source"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	AffectedRanges []string        `json:"affected_ranges,omitempty"`
	Worksheet      string          `json:"worksheet,omitempty"`
	Actor          string          `json:"actor,omitempty"`
}

// IngestFunc accepts one notification into the engine pipeline.
type IngestFunc func(Notification)

// Adapter produces notifications from a document host. Start wires the
// adapter to forward only the enabled event types; implementations must
// deliver notifications from a single goroutine.
type Adapter interface {
	Start(enabled []types.EventType, ingest IngestFunc) error
	Stop() error
}
