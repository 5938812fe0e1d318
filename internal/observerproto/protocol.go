// Package observerproto defines the chunk-watch WebSocket messages.
package observerproto

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeChunk     = "CHUNK"
	TypeStats     = "STATS"
)

// MaxRadius bounds the chunk square a subscriber can watch.
const MaxRadius = 4

// Client -> Server. First message on the connection; may be re-sent to move
// the watched square.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	P               int    `json:"p"`
	Q               int    `json:"q"`
	Radius          int    `json:"radius"`
}

type Voxel struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
	W int `json:"w"`
}

type Sign struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	Face int    `json:"face"`
	Text string `json:"text"`
}

// Server -> Client. Full contents of one chunk, sent on subscribe and again
// whenever the chunk key changes.
type ChunkMsg struct {
	Type   string  `json:"type"`
	P      int     `json:"p"`
	Q      int     `json:"q"`
	Key    int     `json:"key"`
	Blocks []Voxel `json:"blocks"`
	Lights []Voxel `json:"lights"`
	Damage []Voxel `json:"damage"`
	Signs  []Sign  `json:"signs"`
}

// Server -> Client. Queue state, sent every poll.
type StatsMsg struct {
	Type          string `json:"type"`
	Enabled       bool   `json:"enabled"`
	State         string `json:"state"`
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
}

//go:embed subscribe.schema.json
var subscribeSchemaJSON string

var subscribeSchema = jsonschema.MustCompileString("subscribe.schema.json", subscribeSchemaJSON)

// ParseSubscribe validates raw against the subscribe schema and decodes it.
func ParseSubscribe(raw []byte) (SubscribeMsg, error) {
	var msg SubscribeMsg
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return msg, err
	}
	if err := subscribeSchema.Validate(v); err != nil {
		return msg, fmt.Errorf("subscribe: %w", err)
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	if msg.ProtocolVersion != Version {
		return msg, fmt.Errorf("subscribe: protocol version %q, want %q", msg.ProtocolVersion, Version)
	}
	return msg, nil
}
