package persistence

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/underworld/internal/business"
	"github.com/talgya/underworld/internal/player"
	"github.com/talgya/underworld/internal/territory"
)

// SnapshotVersion tags the current save layout.
const SnapshotVersion = 2

// Snapshot is everything needed to resume a game.
type Snapshot struct {
	Version     int                `json:"version"`
	SavedAt     time.Time          `json:"saved_at"`
	GameMinutes float64            `json:"game_minutes"`
	Account     player.Account     `json:"account"`
	Dealers     []territory.Dealer `json:"dealers"`
	Business    *business.State    `json:"business"`
	Territory   *territory.State   `json:"territory"`
}

//go:embed snapshot.schema.json
var schemaJSON string

const schemaURL = "snapshot.schema.json"

var (
	schemaOnce sync.Once
	schemas    map[string]*jsonschema.Schema
	schemaErr  error
)

// schema returns the compiled schema for one of the $defs, or for the whole
// document when def is "snapshot".
func schema(def string) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaJSON))); err != nil {
			schemaErr = err
			return
		}
		schemas = make(map[string]*jsonschema.Schema)
		for _, d := range []string{"snapshot", "dealer", "business", "warehouse", "contract", "shipment", "lot", "territory"} {
			url := schemaURL
			if d != "snapshot" {
				url += "#/$defs/" + d
			}
			s, err := c.Compile(url)
			if err != nil {
				schemaErr = fmt.Errorf("compile %s: %w", url, err)
				return
			}
			schemas[d] = s
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	s, ok := schemas[def]
	if !ok {
		return nil, fmt.Errorf("no schema for %q", def)
	}
	return s, nil
}

// conforms reports whether raw decodes and validates against def.
func conforms(def string, raw json.RawMessage) bool {
	s, err := schema(def)
	if err != nil {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	return s.Validate(v) == nil
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Encode serializes and compresses a snapshot.
func Encode(snap Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

func decompress(data []byte) ([]byte, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return raw, nil
}
