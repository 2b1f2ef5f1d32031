package schema

// CatalogTermTable represents the 'catalog.term' table
type CatalogTermTable struct {
	Table     string
	ID        string
	Namespace string
	Name      string
	Slug      string
	CreatedAt string
}

// CatalogTerm is the schema definition for catalog.term
var CatalogTerm = CatalogTermTable{
	Table:     "catalog.term",
	ID:        "id",
	Namespace: "namespace",
	Name:      "name",
	Slug:      "slug",
	CreatedAt: "createdat",
}

func (t CatalogTermTable) Columns() []string {
	return []string{t.ID, t.Namespace, t.Name, t.Slug, t.CreatedAt}
}

// CatalogToolTermTable represents the 'catalog.toolterm' table
type CatalogToolTermTable struct {
	Table  string
	ToolID string
	TermID string
}

// CatalogToolTerm is the schema definition for catalog.toolterm
var CatalogToolTerm = CatalogToolTermTable{
	Table:  "catalog.toolterm",
	ToolID: "toolid",
	TermID: "termid",
}

func (t CatalogToolTermTable) Columns() []string {
	return []string{t.ToolID, t.TermID}
}
