package metadata

const (
	BelongsTo = "belongs_to"
	HasMany   = "has_many"
	Through   = "through"
)

// Relation describes related rows attached to a record when it is read.
//
//   - belongs_to: LocalKey on this entity holds Target's primary key.
//   - has_many:   ForeignKey on Target holds this entity's primary key.
//   - through:    Join rows pair SourceJoinKey (this entity) with
//     TargetJoinKey (Target).
type Relation struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Target        string `json:"target"`
	LocalKey      string `json:"local_key,omitempty"`
	ForeignKey    string `json:"foreign_key,omitempty"`
	Join          string `json:"join,omitempty"`
	SourceJoinKey string `json:"source_join_key,omitempty"`
	TargetJoinKey string `json:"target_join_key,omitempty"`
}

// Reference declares that a field holds the primary key of another entity.
// Message is returned when the referenced row does not exist.
type Reference struct {
	Field   string `json:"field"`
	Target  string `json:"target"`
	Message string `json:"message,omitempty"`
}

// Association marks an entity whose rows are unique (Fixed, Varying) pairs.
// Key substitution replaces Varying for a given Fixed key.
type Association struct {
	Fixed   string `json:"fixed"`
	Varying string `json:"varying"`
}

// OldParam is the body field naming the varying key being replaced.
func (a Association) OldParam() string { return a.Varying + "_old" }

// NewParam is the body field naming the replacement varying key.
func (a Association) NewParam() string { return a.Varying + "_new" }
