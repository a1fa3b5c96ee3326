package store

// SystemSetting is a named opaque blob, used for instance-level state such as
// the serialized retrieval snapshot and the schema version.
type SystemSetting struct {
	Name  string
	Value string
}

const (
	// SystemSettingSchemaVersion tracks the applied schema version.
	SystemSettingSchemaVersion = "schema_version"
	// SystemSettingRetrievalSnapshot holds the serialized retrieval state.
	SystemSettingRetrievalSnapshot = "retrieval_snapshot"
)
