package waste

import (
	"depot/internal/inventory"
	"depot/internal/realtime"
	"depot/pkg/models"
)

// Service is read only: waste is written by storage.Service.MoveToWaste.
type Service struct {
	state inventory.State
}

func NewService(state inventory.State) *Service {
	return &Service{state: state}
}

func (s *Service) List() []models.WasteItem {
	data := s.state.Waste()
	items := make([]models.WasteItem, 0, len(data))
	for _, id := range realtime.SortedIDs(data) {
		item := data[id]
		item.ID = id
		items = append(items, item)
	}
	return items
}

// Total is the number of units across all waste records.
func (s *Service) Total() int {
	total := 0
	for _, item := range s.state.Waste() {
		total += item.Qty
	}
	return total
}
