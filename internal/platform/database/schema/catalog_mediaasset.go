package schema

// CatalogMediaAssetTable represents the 'catalog.mediaasset' table
type CatalogMediaAssetTable struct {
	Table       string
	ID          string
	ToolID      string
	SourceURL   string
	ContentType string
	FileName    string
	ByteSize    string
	Content     string
	CreatedAt   string
}

// CatalogMediaAsset is the schema definition for catalog.mediaasset
var CatalogMediaAsset = CatalogMediaAssetTable{
	Table:       "catalog.mediaasset",
	ID:          "id",
	ToolID:      "toolid",
	SourceURL:   "sourceurl",
	ContentType: "contenttype",
	FileName:    "filename",
	ByteSize:    "bytesize",
	Content:     "content",
	CreatedAt:   "createdat",
}

func (t CatalogMediaAssetTable) Columns() []string {
	return []string{t.ID, t.ToolID, t.SourceURL, t.ContentType, t.FileName, t.ByteSize, t.CreatedAt}
}
