package schema

// CatalogToolTable represents the 'catalog.tool' table
type CatalogToolTable struct {
	Table      string
	ID         string
	Title      string
	Slug       string
	ProductURL string
	Body       string
	Excerpt    string
	Status     string
	CreatedAt  string
	UpdatedAt  string
}

// CatalogTool is the schema definition for catalog.tool
var CatalogTool = CatalogToolTable{
	Table:      "catalog.tool",
	ID:         "id",
	Title:      "title",
	Slug:       "slug",
	ProductURL: "producturl",
	Body:       "body",
	Excerpt:    "excerpt",
	Status:     "status",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
}

func (t CatalogToolTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.ProductURL, t.Body, t.Excerpt,
		t.Status, t.CreatedAt, t.UpdatedAt,
	}
}
