// internal/app/system/feed/feed.go

// Package feed assembles activity feed pages: it resolves the requested
// scope, computes the viewer's visibility, pulls a page of matching events
// from the log, and renders each one with live entity state, comments, and
// tombstones for anything that no longer exists.
//
// Visibility is computed fresh on every request from the workspace store.
// Nothing here caches a membership or permission decision, so revoking
// access takes effect on the viewer's next request.
package feed

import (
	"context"
	"time"

	commentstore "github.com/dcomingore-pivotal/chorus/internal/app/store/comments"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Scope names what a feed is about. Exactly one of the fields is set; the
// zero Scope is the global feed.
type Scope struct {
	Actor  *primitive.ObjectID
	Entity *eventstore.EntityRef
}

// ForActor scopes a feed to events performed by one user.
func ForActor(id primitive.ObjectID) Scope {
	return Scope{Actor: &id}
}

// ForEntity scopes a feed to events referencing one entity in any target
// role.
func ForEntity(entityType string, id primitive.ObjectID) Scope {
	return Scope{Entity: &eventstore.EntityRef{Type: entityType, ID: id}}
}

// Global is the everyone-visible feed of instance lifecycle and public
// note activity.
func Global() Scope {
	return Scope{}
}

// Actor is the rendered form of the user who performed an event or wrote
// a comment. A soft-deleted author keeps their id but loses the name.
type Actor struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name,omitempty"`
	Deleted bool               `json:"deleted,omitempty"`
}

// CommentView is one rendered comment in an event's thread. A deleted
// comment keeps its slot with an empty body so the thread never renumbers.
type CommentView struct {
	ID        primitive.ObjectID `json:"id"`
	Author    Actor              `json:"author"`
	Body      string             `json:"body,omitempty"`
	Deleted   bool               `json:"deleted,omitempty"`
	Timestamp string             `json:"timestamp"`
}

// Item is one rendered feed entry.
type Item struct {
	ID        int64  `json:"id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`

	Actor   Actor                  `json:"actor"`
	Targets map[string]entity.Info `json:"targets,omitempty"`

	Body string `json:"body,omitempty"`

	// TypeName and GroupingID mirror the primary target's current state so
	// the search indexer can group notes by the object they describe.
	TypeName   string `json:"type_name,omitempty"`
	GroupingID string `json:"grouping_id,omitempty"`

	Comments []CommentView `json:"comments"`
}

// Page is one assembled feed page plus its pagination block.
type Page struct {
	Items      []Item
	Pagination paging.Pagination
}

// Assembler builds feed pages from the event log and the live entity
// stores.
type Assembler struct {
	events     *eventstore.Store
	workspaces *workspacestore.Store
	comments   *commentstore.Store
	users      *userstore.Store
	resolver   *entity.Resolver
}

func NewAssembler(db *mongo.Database) *Assembler {
	return &Assembler{
		events:     eventstore.New(db),
		workspaces: workspacestore.New(db),
		comments:   commentstore.New(db),
		users:      userstore.New(db),
		resolver:   entity.NewResolver(db),
	}
}

// Assemble returns one feed page for the viewer. bodyFilter, when
// non-empty, restricts the feed to events whose body contains the text.
//
// A scope whose entity has been deleted yields an empty page rather than
// an error: feeds for vanished objects read as "no activity", matching
// what a viewer without access would see.
func (a *Assembler) Assemble(ctx context.Context, viewer models.User, scope Scope, params paging.Params, bodyFilter string) (Page, error) {
	if scope.Entity != nil {
		info, err := a.resolver.Resolve(ctx, *scope.Entity)
		if err != nil {
			return Page{}, err
		}
		if info.Deleted {
			return Page{
				Items:      []Item{},
				Pagination: paging.PaginationFor(params, 0, 0),
			}, nil
		}
	}

	q := eventstore.Query{
		ActorID:       scope.Actor,
		Entity:        scope.Entity,
		Global:        scope.Actor == nil && scope.Entity == nil,
		ViewerIsAdmin: viewer.Admin,
		ViewerID:      viewer.ID,
		BodyFilter:    bodyFilter,
		Limit:         params.Limit(),
		Offset:        params.Offset(),
	}

	if !viewer.Admin {
		visible, err := a.workspaces.VisibleIDsTo(ctx, viewer)
		if err != nil {
			return Page{}, err
		}
		q.VisibleWorkspaces = visible
	}

	events, err := a.events.Page(ctx, q)
	if err != nil {
		return Page{}, err
	}
	total, err := a.events.Count(ctx, q)
	if err != nil {
		return Page{}, err
	}

	items, err := a.render(ctx, events)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Items:      items,
		Pagination: paging.PaginationFor(params, len(items), total),
	}, nil
}

// VisibleEvent loads one event if the viewer may see it, applying the same
// visibility rule as feed pages. An event outside the viewer's visibility
// comes back as eventstore.ErrNotFound, indistinguishable from one that
// does not exist.
func (a *Assembler) VisibleEvent(ctx context.Context, viewer models.User, eventID int64) (eventstore.Event, error) {
	event, err := a.events.GetByID(ctx, eventID)
	if err != nil {
		return eventstore.Event{}, err
	}
	if viewer.Admin || event.ActorID == viewer.ID {
		return event, nil
	}
	if event.WorkspaceID == nil {
		if event.Restricted {
			return eventstore.Event{}, eventstore.ErrNotFound
		}
		return event, nil
	}

	visible, err := a.workspaces.VisibleIDsTo(ctx, viewer)
	if err != nil {
		return eventstore.Event{}, err
	}
	for _, id := range visible {
		if id == *event.WorkspaceID {
			return event, nil
		}
	}
	return eventstore.Event{}, eventstore.ErrNotFound
}

// render resolves every event on the page against live entity state and
// attaches comment threads. Comments and authors are fetched in batches,
// one query each, regardless of page size.
func (a *Assembler) render(ctx context.Context, events []eventstore.Event) ([]Item, error) {
	items := make([]Item, 0, len(events))

	ids := make([]int64, 0, len(events))
	authorIDs := make([]primitive.ObjectID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		authorIDs = append(authorIDs, e.ActorID)
	}

	threads, err := a.comments.ListByEvents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, cs := range threads {
		for _, c := range cs {
			authorIDs = append(authorIDs, c.AuthorID)
		}
	}

	authors, err := a.users.GetManyByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		item := Item{
			ID:        e.ID,
			Action:    e.Kind,
			Timestamp: e.CreatedAt.Format(time.RFC3339),
			Actor:     actorFor(e.ActorID, authors),
			Body:      e.Body(),
			Comments:  []CommentView{},
		}

		if len(e.Targets) > 0 {
			item.Targets = make(map[string]entity.Info, len(e.Targets))
			for role, ref := range e.Targets {
				info, err := a.resolver.Resolve(ctx, ref)
				if err != nil {
					return nil, err
				}
				item.Targets[role] = info
			}
		}

		if primary, ok := item.Targets[eventstore.RoleTarget1]; ok && !primary.Deleted {
			item.TypeName = primary.TypeName
			item.GroupingID = primary.GroupingID
		}

		for _, c := range threads[e.ID] {
			view := CommentView{
				ID:        c.ID,
				Author:    actorFor(c.AuthorID, authors),
				Deleted:   c.Deleted,
				Timestamp: c.CreatedAt.Format(time.RFC3339),
			}
			if !c.Deleted {
				view.Body = c.Body
			}
			item.Comments = append(item.Comments, view)
		}

		items = append(items, item)
	}

	return items, nil
}

func actorFor(id primitive.ObjectID, users map[primitive.ObjectID]models.User) Actor {
	if u, ok := users[id]; ok {
		return Actor{ID: id, Name: u.FullName}
	}
	return Actor{ID: id, Deleted: true}
}
