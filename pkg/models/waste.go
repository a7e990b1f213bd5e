package models

const WasteFromStorage = "storage"

type WasteItem struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
	From string `json:"from"`
}

type WasteData map[string]WasteItem
