package storage

type AddEquipmentRequest struct {
	ID    string `json:"id" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Qty   *int   `json:"qty"`
	Notes string `json:"notes"`
}

type AdjustQuantityRequest struct {
	ID    string `uri:"id" json:"-" binding:"required"`
	Delta int    `json:"delta"`
}

type MoveToWasteRequest struct {
	ID       string `uri:"id" json:"-" binding:"required"`
	Quantity int    `json:"quantity"`
}
