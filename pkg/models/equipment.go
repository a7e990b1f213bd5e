package models

// Equipment is a record under storage/{id}.
type Equipment struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Qty   int    `json:"qty"`
	Notes string `json:"notes"`
}

type StorageData map[string]Equipment

// Record returns the value written to the store, without the id which is the path key.
func (e Equipment) Record() map[string]interface{} {
	return map[string]interface{}{
		"name":  e.Name,
		"qty":   e.Qty,
		"notes": e.Notes,
	}
}
