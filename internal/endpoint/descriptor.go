package endpoint

// Descriptor describes an endpoint type for catalogs and configuration UIs.
type Descriptor struct {
	ID          string
	Family      string // e.g. "http"
	Title       string
	Vendor      string
	Description string
	Categories  []string
	Protocols   []string
	DocsURL     string
	Fields      []*FieldDescriptor
}

// FieldDescriptor describes a single configuration field.
type FieldDescriptor struct {
	Key         string
	Label       string
	ValueType   string // "string", "password", "number"
	Required    bool
	Sensitive   bool
	Placeholder string
	Description string
}
