package models

// BoxItems maps an equipment id to the quantity held in a box. A missing key means zero.
type BoxItems map[string]int

type Box struct {
	ID        string   `json:"id,omitempty"`
	Recipient string   `json:"recipient"`
	Site      string   `json:"site"`
	Items     BoxItems `json:"items"`
}

type BoxesData map[string]Box

func (b Box) Quantity(equipmentID string) int {
	if b.Items == nil {
		return 0
	}
	return b.Items[equipmentID]
}
