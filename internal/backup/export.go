package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// kvReader is the slice of the backing store that exports need.
type kvReader interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Keys(ctx context.Context) ([]string, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version       string    `json:"version"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	SnapshotCount int       `json:"snapshot_count"`
}

// record wraps a single snapshot line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes every stored snapshot as JSONL to w, sorted by key.
func ExportJSONL(ctx context.Context, backing kvReader, w io.Writer) error {
	keys, err := backing.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list snapshot keys: %w", err)
	}
	sort.Strings(keys)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:       "1",
		Type:          "header",
		Timestamp:     time.Now().UTC(),
		SnapshotCount: len(keys),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, key := range keys {
		data, ok, err := backing.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("load snapshot %s: %w", key, err)
		}
		if !ok {
			continue
		}
		if err := enc.Encode(record{Type: "snapshot", Key: key, Data: data}); err != nil {
			return fmt.Errorf("encode snapshot %s: %w", key, err)
		}
	}

	return nil
}
