// internal/app/system/feed/indexfeed.go
package feed

import (
	"context"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
)

// IndexEntry is one document handed to the external search indexer. The
// body is already sanitized; type_name and grouping_id reflect the primary
// target's state at read time.
type IndexEntry struct {
	EventID    int64  `json:"event_id"`
	Kind       string `json:"kind"`
	Body       string `json:"body"`
	TypeName   string `json:"type_name,omitempty"`
	GroupingID string `json:"grouping_id,omitempty"`
}

// IndexFeed returns up to limit indexable events appended after sinceID,
// oldest first, so the indexer can poll with its last-seen id as a cursor.
// Events whose primary target has since been deleted are skipped; a
// vanished object has nothing left to group search hits under.
func (a *Assembler) IndexFeed(ctx context.Context, sinceID int64, limit int64) ([]IndexEntry, error) {
	events, err := a.events.SearchableSince(ctx, sinceID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]IndexEntry, 0, len(events))
	for _, e := range events {
		entry := IndexEntry{
			EventID: e.ID,
			Kind:    e.Kind,
			Body:    e.Body(),
		}
		if ref, ok := e.Targets[eventstore.RoleTarget1]; ok {
			info, err := a.resolver.Resolve(ctx, ref)
			if err != nil {
				return nil, err
			}
			if info.Deleted {
				continue
			}
			entry.TypeName = info.TypeName
			entry.GroupingID = info.GroupingID
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
