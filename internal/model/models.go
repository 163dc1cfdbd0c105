package model

type Protocol string // "tcp", "udp"

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

type RefKind string // "address", "service"

const (
	RefAddress RefKind = "address"
	RefService RefKind = "service"
)

// Reference is one glossary record. Name and Addresses hold HTML-ready text.
type Reference struct {
	ID        string
	Name      string
	Addresses []string
	Kind      RefKind
}

// RefTable maps object ids to glossary records in first-discovery order.
// The first record added for an id wins.
type RefTable struct {
	order []string
	refs  map[string]*Reference
}

// NewRefTable returns an empty table.
func NewRefTable() *RefTable {
	return &RefTable{refs: make(map[string]*Reference)}
}

// Has reports whether a record for id exists.
func (t *RefTable) Has(id string) bool {
	_, ok := t.refs[id]
	return ok
}

// Add records ref unless its id is already present. It reports whether the
// record was added.
func (t *RefTable) Add(ref Reference) bool {
	if t.Has(ref.ID) {
		return false
	}
	r := ref
	t.refs[ref.ID] = &r
	t.order = append(t.order, ref.ID)
	return true
}

// Get returns the record stored for id.
func (t *RefTable) Get(id string) (*Reference, bool) {
	r, ok := t.refs[id]
	return r, ok
}

// Merge appends the records of other whose ids are not yet present.
func (t *RefTable) Merge(other *RefTable) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		t.Add(*other.refs[id])
	}
}

// Rename overrides the display name of an existing record.
func (t *RefTable) Rename(id, name string) bool {
	r, ok := t.refs[id]
	if ok {
		r.Name = name
	}
	return ok
}

// Len returns the number of records.
func (t *RefTable) Len() int {
	return len(t.order)
}

// All returns the records in first-discovery order.
func (t *RefTable) All() []*Reference {
	out := make([]*Reference, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.refs[id])
	}
	return out
}

type RenderedRule struct {
	ID       string
	Policy   string
	Position string // dotted, e.g. "3.1" for the first rule of the branch at rule 3
	Action   string // raw action attribute
	Class    string // css suffix, e.g. "accept"
	BranchID string
	Disabled bool
	HTML     string
	Text     string
}

// Fragment is the result of walking one policy.
type Fragment struct {
	HTML  string
	Refs  *RefTable
	Rules []RenderedRule
}

type Report struct {
	Title    string
	Firewall string
	Policy   *Fragment
}
