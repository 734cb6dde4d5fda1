package metadata

// Operation names one routed action on an entity.
type Operation string

const (
	OpList   Operation = "list"
	OpAll    Operation = "all"
	OpSearch Operation = "search"
	OpDetail Operation = "detail"
	OpGet    Operation = "get"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ReadOperations are the operations a read-only entity exposes.
var ReadOperations = []Operation{OpList, OpAll, OpSearch, OpGet}

// CRUDOperations is the full set for a writable entity without name search.
var CRUDOperations = []Operation{OpList, OpGet, OpCreate, OpUpdate, OpDelete}

type Entity struct {
	Name        string                 `json:"name"`
	Table       string                 `json:"table"`
	Path        string                 `json:"path,omitempty"` // empty means not routed
	Label       string                 `json:"label"`
	PrimaryKey  PrimaryKey             `json:"primary_key"`
	Fields      []Field                `json:"fields"`
	References  []Reference            `json:"references,omitempty"`
	Association *Association           `json:"association,omitempty"`
	Relations   []Relation             `json:"relations,omitempty"`
	Operations  []Operation            `json:"operations,omitempty"`
	Includes    map[Operation][]string `json:"includes,omitempty"`
	SearchField string                 `json:"search_field,omitempty"`

	// Nested names a two-step relation path, e.g. tribunas then localidades,
	// served flattened under /{path}/:id/{last step}.
	Nested   []string `json:"nested,omitempty"`
	Messages Messages `json:"-"`
}

type PrimaryKey struct {
	Field     string `json:"field"`
	Generated bool   `json:"generated"`
}

// Messages holds the human-readable strings returned by each operation.
type Messages struct {
	Listed        string
	Found         string
	Searched      string // search with a non-empty term
	SearchedAll   string // search without a term
	Created       string
	Updated       string
	Deleted       string
	NotFound      string
	DeleteBlocked string
	Exists        string // association pair already present on create
	UpdateExists  string // association pair already present on key substitution
	PairNotFound  string // association pair to substitute is missing
	Nested        string
	NestedEmpty   string
}

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

// Columns returns every stored column, primary key first.
func (e *Entity) Columns() []string {
	cols := make([]string, 0, len(e.Fields)+1)
	if e.PrimaryKey.Field != "" {
		cols = append(cols, e.PrimaryKey.Field)
	}
	for _, f := range e.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

// Routed reports whether the entity is exposed over HTTP.
func (e *Entity) Routed() bool {
	return e.Path != ""
}

// Offers reports whether op is routed for this entity.
func (e *Entity) Offers(op Operation) bool {
	for _, o := range e.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// IncludesFor returns the relation names eagerly loaded for op.
func (e *Entity) IncludesFor(op Operation) []string {
	return e.Includes[op]
}

// IsAssociation reports whether rows are identified by a composite key pair.
func (e *Entity) IsAssociation() bool {
	return e.Association != nil
}

// GetRelation returns the relation with the given name, or nil.
func (e *Entity) GetRelation(name string) *Relation {
	for i := range e.Relations {
		if e.Relations[i].Name == name {
			return &e.Relations[i]
		}
	}
	return nil
}

// OrderBy returns the columns list results are sorted by.
func (e *Entity) OrderBy() []string {
	if e.Association != nil {
		return []string{e.Association.Fixed, e.Association.Varying}
	}
	return []string{e.PrimaryKey.Field}
}

// TypedColumns maps every column to its field type, used to normalize
// values coming back from drivers that lose type information.
func (e *Entity) TypedColumns() map[string]string {
	types := make(map[string]string, len(e.Fields)+1)
	if e.PrimaryKey.Field != "" {
		types[e.PrimaryKey.Field] = TypeInteger
	}
	for _, f := range e.Fields {
		types[f.Name] = f.Type
	}
	return types
}
