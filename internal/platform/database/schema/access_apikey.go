package schema

// AccessAPIKeyTable represents the 'access.apikey' table
type AccessAPIKeyTable struct {
	Table       string
	ID          string
	APIKey      string
	Name        string
	Description string
	RateLimit   string
	Status      string
	CreatedBy   string
	CreatedAt   string
	LastUsedAt  string
	ExpiresAt   string
}

// AccessAPIKey is the schema definition for access.apikey
var AccessAPIKey = AccessAPIKeyTable{
	Table:       "access.apikey",
	ID:          "id",
	APIKey:      "apikey",
	Name:        "name",
	Description: "description",
	RateLimit:   "ratelimit",
	Status:      "status",
	CreatedBy:   "createdby",
	CreatedAt:   "createdat",
	LastUsedAt:  "lastusedat",
	ExpiresAt:   "expiresat",
}

func (t AccessAPIKeyTable) Columns() []string {
	return []string{
		t.ID, t.APIKey, t.Name, t.Description, t.RateLimit,
		t.Status, t.CreatedBy, t.CreatedAt, t.LastUsedAt, t.ExpiresAt,
	}
}
