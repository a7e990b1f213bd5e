package boxes

type CreateBoxRequest struct {
	ID        string `json:"id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Site      string `json:"site" binding:"required"`
}

type UpdateBoxRequest struct {
	ID        string `uri:"id" json:"-" binding:"required"`
	Recipient string `json:"recipient"`
	Site      string `json:"site"`
}

// BoxURI is bound separately from bodies whose required fields only arrive as JSON.
type BoxURI struct {
	ID string `uri:"id" binding:"required"`
}

type AddItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity"`
}

type RemoveItemRequest struct {
	BoxID    string `uri:"id" json:"-" binding:"required"`
	ItemID   string `uri:"item_id" json:"-" binding:"required"`
	Quantity int    `json:"quantity"`
}
