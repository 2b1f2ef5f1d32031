package schema

// CatalogToolMetaTable represents the 'catalog.toolmeta' table
type CatalogToolMetaTable struct {
	Table     string
	ToolID    string
	MetaKey   string
	MetaValue string
	UpdatedAt string
}

// CatalogToolMeta is the schema definition for catalog.toolmeta
var CatalogToolMeta = CatalogToolMetaTable{
	Table:     "catalog.toolmeta",
	ToolID:    "toolid",
	MetaKey:   "metakey",
	MetaValue: "metavalue",
	UpdatedAt: "updatedat",
}

func (t CatalogToolMetaTable) Columns() []string {
	return []string{t.ToolID, t.MetaKey, t.MetaValue, t.UpdatedAt}
}
