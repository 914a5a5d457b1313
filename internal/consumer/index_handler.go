package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omar-ramo/yawm/internal/search"
	pkglog "github.com/omar-ramo/yawm/pkg/log"
)

const (
	tableDiaries  = "diaries"
	tableProfiles = "profiles"
)

// IndexHandler mirrors diary and profile changes into the search index.
type IndexHandler struct {
	indexer search.Indexer
}

var _ CDCEventHandler = (*IndexHandler)(nil)

func NewIndexHandler(indexer search.Indexer) *IndexHandler {
	return &IndexHandler{indexer: indexer}
}

func (h *IndexHandler) HandleCDCEvent(ctx context.Context, event *DebeziumMessage) error {
	switch event.Payload.Source.Table {
	case tableDiaries:
		return h.handleDiary(ctx, &event.Payload)
	case tableProfiles:
		return h.handleProfile(ctx, &event.Payload)
	default:
		l := pkglog.Ctx(ctx)
		l.Debug().Str("table", event.Payload.Source.Table).Msg("ignoring CDC event for unindexed table")
		return nil
	}
}

func (h *IndexHandler) handleDiary(ctx context.Context, p *DebeziumPayload) error {
	if p.Op == "d" {
		var before DiaryRecord
		if err := decodeRow(p.Before, &before); err != nil {
			return err
		}
		return h.indexer.DeleteDiary(ctx, before.ID)
	}

	var after DiaryRecord
	if err := decodeRow(p.After, &after); err != nil {
		return err
	}
	if after.DeletedAt != nil {
		return h.indexer.DeleteDiary(ctx, after.ID)
	}

	doc := search.DiaryDocument{
		ID:         after.ID,
		Title:      after.Title,
		AuthorID:   after.AuthorID,
		Visibility: after.Visibility,
	}
	if after.CreatedAt != nil {
		doc.CreatedAt = *after.CreatedAt
	}
	return h.indexer.IndexDiary(ctx, doc)
}

func (h *IndexHandler) handleProfile(ctx context.Context, p *DebeziumPayload) error {
	if p.Op == "d" {
		var before ProfileRecord
		if err := decodeRow(p.Before, &before); err != nil {
			return err
		}
		return h.indexer.DeleteProfile(ctx, before.ID)
	}

	var after ProfileRecord
	if err := decodeRow(p.After, &after); err != nil {
		return err
	}
	return h.indexer.IndexProfile(ctx, search.ProfileDocument{
		ID:          after.ID,
		Username:    after.Username,
		Name:        after.Name,
		Description: after.Description,
	})
}

func decodeRow(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("CDC event is missing its row image")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode CDC row: %w", err)
	}
	return nil
}
