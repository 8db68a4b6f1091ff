// internal/app/system/activity/kinds.go
package activity

import (
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
)

// Event kinds. The set is closed: emission rejects anything not listed in
// schemas below, so a malformed event can never enter the log.
const (
	KindNoteOnGreenplumInstance = "NOTE_ON_GREENPLUM_INSTANCE"
	KindNoteOnHadoopInstance    = "NOTE_ON_HADOOP_INSTANCE"
	KindNoteOnWorkspace         = "NOTE_ON_WORKSPACE"
	KindNoteOnDataset           = "NOTE_ON_DATASET"
	KindNoteOnWorkspaceDataset  = "NOTE_ON_WORKSPACE_DATASET"
	KindNoteOnWorkfile          = "NOTE_ON_WORKFILE"

	KindWorkspaceCreated     = "WORKSPACE_CREATED"
	KindWorkspaceArchived    = "WORKSPACE_ARCHIVED"
	KindWorkspaceUnarchived  = "WORKSPACE_UNARCHIVED"
	KindWorkspaceMakePublic  = "WORKSPACE_MAKE_PUBLIC"
	KindWorkspaceMakePrivate = "WORKSPACE_MAKE_PRIVATE"
	KindWorkspaceAddWorkfile = "WORKSPACE_ADD_WORKFILE"
	KindMembersAdded         = "MEMBERS_ADDED"

	KindGreenplumInstanceCreated     = "GREENPLUM_INSTANCE_CREATED"
	KindHadoopInstanceCreated        = "HADOOP_INSTANCE_CREATED"
	KindGreenplumInstanceChangedName = "GREENPLUM_INSTANCE_CHANGED_NAME"

	KindDatasetImportCreated = "DATASET_IMPORT_CREATED"
	KindDatasetImportSuccess = "DATASET_IMPORT_SUCCESS"
	KindDatasetImportFailed  = "DATASET_IMPORT_FAILED"
)

// Schema fixes, per kind, the required target roles, the data fields, and
// which feeds the event lands in. Validation happens once at emission;
// readers can trust any row in the log.
type Schema struct {
	// Roles that must be present in the targets map. No other roles are
	// accepted.
	Roles []string

	// RequiredData fields must be present and non-empty; OptionalData may
	// appear. Any other field is rejected.
	RequiredData []string
	OptionalData []string

	// Global delivers the event to the everyone-visible feed.
	Global bool

	// Restricted marks kinds whose primary target carries workspace-scoped
	// privacy that the event itself cannot express. Such events default to
	// admin-and-actor-only visibility rather than guessing public exposure.
	Restricted bool

	// Searchable marks kinds whose body feeds the external search indexer.
	Searchable bool
}

// HasRole reports whether role is in the schema's role set.
func (s Schema) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

var schemas = map[string]Schema{
	KindNoteOnGreenplumInstance: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleInstance},
		RequiredData: []string{"body"},
		Global:       true,
		Searchable:   true,
	},
	KindNoteOnHadoopInstance: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleInstance},
		RequiredData: []string{"body"},
		Global:       true,
		Searchable:   true,
	},
	KindNoteOnWorkspace: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleWorkspace},
		RequiredData: []string{"body"},
		Searchable:   true,
	},
	KindNoteOnDataset: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleDataset},
		RequiredData: []string{"body"},
		// A dataset may sit in a workspace sandbox the event cannot name;
		// stay conservative instead of exposing the note globally.
		Restricted: true,
		Searchable: true,
	},
	KindNoteOnWorkspaceDataset: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleDataset, eventstore.RoleWorkspace},
		RequiredData: []string{"body"},
		Searchable:   true,
	},
	KindNoteOnWorkfile: {
		Roles:        []string{eventstore.RoleTarget1, eventstore.RoleWorkfile, eventstore.RoleWorkspace},
		RequiredData: []string{"body"},
		Searchable:   true,
	},

	KindWorkspaceCreated: {
		Roles:  []string{eventstore.RoleWorkspace},
		Global: true,
	},
	KindWorkspaceArchived: {
		Roles: []string{eventstore.RoleWorkspace},
	},
	KindWorkspaceUnarchived: {
		Roles: []string{eventstore.RoleWorkspace},
	},
	KindWorkspaceMakePublic: {
		Roles: []string{eventstore.RoleWorkspace},
	},
	KindWorkspaceMakePrivate: {
		Roles: []string{eventstore.RoleWorkspace},
	},
	KindWorkspaceAddWorkfile: {
		Roles: []string{eventstore.RoleWorkspace, eventstore.RoleWorkfile},
	},
	KindMembersAdded: {
		Roles:        []string{eventstore.RoleWorkspace, eventstore.RoleMember},
		OptionalData: []string{"num_added"},
	},

	KindGreenplumInstanceCreated: {
		Roles:  []string{eventstore.RoleInstance},
		Global: true,
	},
	KindHadoopInstanceCreated: {
		Roles:  []string{eventstore.RoleInstance},
		Global: true,
	},
	KindGreenplumInstanceChangedName: {
		Roles:        []string{eventstore.RoleInstance},
		RequiredData: []string{"old_name", "new_name"},
		Global:       true,
	},

	KindDatasetImportCreated: {
		Roles:        []string{eventstore.RoleWorkspace, eventstore.RoleDataset},
		RequiredData: []string{"destination_table"},
	},
	KindDatasetImportSuccess: {
		Roles:        []string{eventstore.RoleWorkspace, eventstore.RoleDataset},
		RequiredData: []string{"destination_table"},
	},
	KindDatasetImportFailed: {
		Roles:        []string{eventstore.RoleWorkspace, eventstore.RoleDataset},
		RequiredData: []string{"destination_table", "error_message"},
	},
}

// SchemaFor returns the schema for a kind, with ok=false for unknown kinds.
func SchemaFor(kind string) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Kinds returns every known kind in unspecified order.
func Kinds() []string {
	out := make([]string, 0, len(schemas))
	for k := range schemas {
		out = append(out, k)
	}
	return out
}

// NoteKindFor maps an entity type to the note kind a comment on it becomes.
// instanceKind distinguishes Greenplum from Hadoop instances, and
// workspaceScoped marks datasets that live in a workspace sandbox.
func NoteKindFor(entityType, instanceKind string, workspaceScoped bool) (string, bool) {
	switch entityType {
	case "instance":
		if instanceKind == "hadoop" {
			return KindNoteOnHadoopInstance, true
		}
		return KindNoteOnGreenplumInstance, true
	case "workspace":
		return KindNoteOnWorkspace, true
	case "dataset":
		if workspaceScoped {
			return KindNoteOnWorkspaceDataset, true
		}
		return KindNoteOnDataset, true
	case "workfile":
		return KindNoteOnWorkfile, true
	default:
		return "", false
	}
}
