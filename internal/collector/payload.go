package collector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"TransferSentinel/internal/model"
)

// PayloadSource reads provider-shaped JSON documents from a directory:
//
//	<dir>/bootstrap-static.json
//	<dir>/entry/<id>/history.json
type PayloadSource struct {
	Dir string
}

// NewPayloadSource creates a source rooted at dir.
func NewPayloadSource(dir string) *PayloadSource {
	return &PayloadSource{Dir: dir}
}

func (s *PayloadSource) Name() string { return "payload" }

// bootstrapPayload is the subset of bootstrap-static the ledger needs.
type bootstrapPayload struct {
	Events []model.Event `json:"events"`
}

// historyPayload is the subset of entry history the ledger needs.
type historyPayload struct {
	Current []model.GameweekRecord `json:"current"`
	Chips   []model.ChipActivation `json:"chips"`
}

func (s *PayloadSource) Events(ctx context.Context) ([]model.Event, error) {
	var payload bootstrapPayload
	if err := s.decode(ctx, filepath.Join(s.Dir, "bootstrap-static.json"), &payload); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	sort.Slice(payload.Events, func(i, j int) bool { return payload.Events[i].ID < payload.Events[j].ID })
	return payload.Events, nil
}

func (s *PayloadSource) EntryHistory(ctx context.Context, entryID int) (*model.EntryHistory, error) {
	path := filepath.Join(s.Dir, "entry", strconv.Itoa(entryID), "history.json")
	var payload historyPayload
	if err := s.decode(ctx, path, &payload); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("entry %d: %w", entryID, ErrEntryNotFound)
		}
		return nil, fmt.Errorf("entry %d history: %w", entryID, err)
	}

	// Ensure chronological order
	sort.SliceStable(payload.Current, func(i, j int) bool { return payload.Current[i].Event < payload.Current[j].Event })
	sort.SliceStable(payload.Chips, func(i, j int) bool { return payload.Chips[i].Event < payload.Chips[j].Event })

	return &model.EntryHistory{
		EntryID: entryID,
		Current: payload.Current,
		Chips:   payload.Chips,
	}, nil
}

func (s *PayloadSource) decode(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
