package ir

// Draft is one service type declared in a catalog file, before it is
// submitted to the engine.
type Draft struct {
	// Key is the catalog label, e.g. "web_development" in
	// service_type: web_development: {...}.
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Technical   bool     `json:"technical"`
	Tags        []string `json:"tags"`
	// Status is StatusPending unless the catalog asks for StatusApproved.
	Status Status `json:"status"`
}

// Content returns the draft's user-editable fields.
func (d Draft) Content() Content {
	return Content{
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Technical:   d.Technical,
		Tags:        d.Tags,
	}
}
