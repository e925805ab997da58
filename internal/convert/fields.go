// Package convert maps domain models to stored documents and stored
// document keys to wire field names.
package convert

// Stored keys common to every collection.
const (
	KeyID        = "_id"
	KeyCreatedAt = "created_at"
)

// Alias pairs a wire field name with the stored document key it maps to.
type Alias struct {
	Wire   string
	Stored string
}

// FieldTable is the per-resource bidirectional name mapping. Each stored key
// appears at most once; its Wire name is canonical on output.
type FieldTable []Alias

// StoredName resolves an incoming field name. Both the wire alias and the
// stored name are accepted.
func (t FieldTable) StoredName(name string) (string, bool) {
	for _, a := range t {
		if a.Wire == name || a.Stored == name {
			return a.Stored, true
		}
	}
	return "", false
}

// WireName returns the canonical wire name for a stored key.
func (t FieldTable) WireName(stored string) (string, bool) {
	for _, a := range t {
		if a.Stored == stored {
			return a.Wire, true
		}
	}
	return "", false
}

// ToWire renames stored keys to wire names. Keys outside the table are dropped.
func (t FieldTable) ToWire(doc map[string]any) map[string]any {
	out := make(map[string]any, len(t))
	for _, a := range t {
		if v, ok := doc[a.Stored]; ok {
			out[a.Wire] = v
		}
	}
	return out
}

// Review wire fields. "message" is the wire alias of the stored "comment".
var ReviewFields = FieldTable{
	{Wire: "_id", Stored: KeyID},
	{Wire: "name", Stored: "name"},
	{Wire: "rating", Stored: "rating"},
	{Wire: "message", Stored: "comment"},
	{Wire: "published", Stored: "published"},
	{Wire: "created_at", Stored: KeyCreatedAt},
}

// PortfolioFields maps portfolio wire fields. "image" is the wire alias of
// the stored "image_url", which is derived from uploads.
var PortfolioFields = FieldTable{
	{Wire: "_id", Stored: KeyID},
	{Wire: "title", Stored: "title"},
	{Wire: "description", Stored: "description"},
	{Wire: "category", Stored: "category"},
	{Wire: "image", Stored: "image_url"},
	{Wire: "link", Stored: "link"},
	{Wire: "tags", Stored: "tags"},
	{Wire: "is_featured", Stored: "is_featured"},
	{Wire: "is_active", Stored: "is_active"},
	{Wire: "created_at", Stored: KeyCreatedAt},
}

// ProjectFields maps project wire fields.
var ProjectFields = FieldTable{
	{Wire: "_id", Stored: KeyID},
	{Wire: "name", Stored: "name"},
	{Wire: "description", Stored: "description"},
}
