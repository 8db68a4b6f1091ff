// internal/app/system/activity/emitter.go
package activity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/htmlsanitize"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ValidationError reports everything wrong with an emission attempt at
// once. No event is appended when it is returned.
type ValidationError struct {
	Kind          string
	UnknownKind   bool
	MissingActor  bool
	MissingRoles  []string
	UnknownRoles  []string
	MissingFields []string
	UnknownFields []string
}

func (e *ValidationError) Error() string {
	if e.UnknownKind {
		return fmt.Sprintf("activity: unknown event kind %q", e.Kind)
	}

	var parts []string
	if e.MissingActor {
		parts = append(parts, "missing actor")
	}
	if len(e.MissingRoles) > 0 {
		parts = append(parts, "missing target roles: "+strings.Join(e.MissingRoles, ", "))
	}
	if len(e.UnknownRoles) > 0 {
		parts = append(parts, "unknown target roles: "+strings.Join(e.UnknownRoles, ", "))
	}
	if len(e.MissingFields) > 0 {
		parts = append(parts, "missing data fields: "+strings.Join(e.MissingFields, ", "))
	}
	if len(e.UnknownFields) > 0 {
		parts = append(parts, "unknown data fields: "+strings.Join(e.UnknownFields, ", "))
	}
	return fmt.Sprintf("activity: invalid %s event: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) ok() bool {
	return !e.UnknownKind && !e.MissingActor &&
		len(e.MissingRoles) == 0 && len(e.UnknownRoles) == 0 &&
		len(e.MissingFields) == 0 && len(e.UnknownFields) == 0
}

// Log mirror settings. Events are always persisted; the setting only
// controls whether each emission is also mirrored to the structured log.
const (
	LogAll = "all" // append and mirror to zap
	LogDB  = "db"  // append only
)

// Emitter validates and appends activity events. It is the only write path
// into the event log.
type Emitter struct {
	events *eventstore.Store
	log    *zap.Logger
	mode   string
}

// NewEmitter creates an Emitter. mode is LogAll or LogDB; anything else is
// treated as LogAll.
func NewEmitter(events *eventstore.Store, logger *zap.Logger, mode string) *Emitter {
	return &Emitter{events: events, log: logger, mode: mode}
}

// Validate checks an emission against the kind's schema without writing
// anything. Returns nil when the emission is well-formed.
func Validate(kind string, actorID primitive.ObjectID, targets map[string]eventstore.EntityRef, data map[string]string) *ValidationError {
	verr := &ValidationError{Kind: kind}

	schema, known := SchemaFor(kind)
	if !known {
		verr.UnknownKind = true
		return verr
	}

	if actorID.IsZero() {
		verr.MissingActor = true
	}

	for _, role := range schema.Roles {
		if ref, ok := targets[role]; !ok || ref.ID.IsZero() || ref.Type == "" {
			verr.MissingRoles = append(verr.MissingRoles, role)
		}
	}
	for role := range targets {
		if !schema.HasRole(role) {
			verr.UnknownRoles = append(verr.UnknownRoles, role)
		}
	}

	for _, field := range schema.RequiredData {
		if data[field] == "" {
			verr.MissingFields = append(verr.MissingFields, field)
		}
	}
	for field := range data {
		if !containsField(schema.RequiredData, field) && !containsField(schema.OptionalData, field) {
			verr.UnknownFields = append(verr.UnknownFields, field)
		}
	}

	// Map iteration order is random; keep messages stable.
	sort.Strings(verr.UnknownRoles)
	sort.Strings(verr.UnknownFields)

	if verr.ok() {
		return nil
	}
	return verr
}

// Emit validates the emission, sanitizes the body, and appends the event.
// On validation failure nothing is written: a failed emission never appears
// in any feed.
func (em *Emitter) Emit(ctx context.Context, kind string, actorID primitive.ObjectID, targets map[string]eventstore.EntityRef, data map[string]string) (eventstore.Event, error) {
	if verr := Validate(kind, actorID, targets, data); verr != nil {
		return eventstore.Event{}, verr
	}
	schema, _ := SchemaFor(kind)

	if body, ok := data["body"]; ok {
		clean := htmlsanitize.Sanitize(body)
		copied := make(map[string]string, len(data))
		for k, v := range data {
			copied[k] = v
		}
		copied["body"] = clean
		data = copied
	}

	event := eventstore.Event{
		Kind:       kind,
		ActorID:    actorID,
		Targets:    targets,
		Global:     schema.Global,
		Restricted: schema.Restricted,
		Data:       data,
	}

	appended, err := em.events.Append(ctx, event)
	if err != nil {
		return eventstore.Event{}, err
	}

	if em.mode != LogDB {
		em.mirror(appended)
	}
	return appended, nil
}

func (em *Emitter) mirror(event eventstore.Event) {
	fields := []zap.Field{
		zap.String("kind", event.Kind),
		zap.Int64("event_id", event.ID),
		zap.String("actor_id", event.ActorID.Hex()),
	}
	if event.WorkspaceID != nil {
		fields = append(fields, zap.String("workspace_id", event.WorkspaceID.Hex()))
	}
	for role, ref := range event.Targets {
		fields = append(fields, zap.String("target_"+role, ref.Type+":"+ref.ID.Hex()))
	}
	em.log.Info("activity event", fields...)
}

func containsField(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
