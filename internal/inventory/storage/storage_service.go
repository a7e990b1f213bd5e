package storage

import (
	"context"
	"fmt"
	"strings"

	"depot/internal/inventory"
	"depot/internal/realtime"
	"depot/internal/session"
	custom_error "depot/pkg/errors"
	"depot/pkg/models"
)

const defaultQuantity = 1

type Service struct {
	state    inventory.State
	recorder inventory.Recorder
}

func NewService(state inventory.State, recorder inventory.Recorder) *Service {
	return &Service{state: state, recorder: recorder}
}

func (s *Service) List() []models.Equipment {
	data := s.state.Storage()
	items := make([]models.Equipment, 0, len(data))
	for _, id := range realtime.SortedIDs(data) {
		item := data[id]
		item.ID = id
		items = append(items, item)
	}
	return items
}

// AdjustQuantity adds delta to the stored quantity and returns the new value.
// A change that would leave the quantity negative is rejected.
func (s *Service) AdjustQuantity(ctx context.Context, sess session.Session, id string, delta int) (int, error) {
	const action = "adjust_quantity"

	item, ok := s.state.Storage()[id]
	if !ok {
		return 0, inventory.Reject(action, custom_error.NewNotFoundError("equipment", id))
	}
	if delta == 0 {
		return 0, inventory.Reject(action, custom_error.NewValidationError("delta", "must not be zero"))
	}

	newQty := item.Qty + delta
	if newQty < 0 {
		return 0, inventory.Reject(action, &custom_error.InsufficientQuantityError{Requested: -delta, Available: item.Qty})
	}

	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathStorage, id, "qty"): newQty,
	}
	msg := fmt.Sprintf("Changed quantity of %q from %d to %d.", item.Name, item.Qty, newQty)
	if err := s.recorder.PerformUpdates(ctx, sess, updates, msg); err != nil {
		return 0, err
	}

	return newQty, nil
}

// AddEquipment writes a new storage record. Ids are not checked for uniqueness, so an
// existing id is overwritten.
func (s *Service) AddEquipment(ctx context.Context, sess session.Session, req AddEquipmentRequest) (*models.Equipment, error) {
	const action = "add_equipment"

	id := strings.TrimSpace(req.ID)
	name := strings.TrimSpace(req.Name)
	if err := inventory.ValidateID("id", id); err != nil {
		return nil, inventory.Reject(action, err)
	}
	if name == "" {
		return nil, inventory.Reject(action, custom_error.NewValidationError("name", "is required"))
	}

	qty := defaultQuantity
	if req.Qty != nil {
		qty = *req.Qty
	}
	if qty < 0 {
		return nil, inventory.Reject(action, custom_error.NewValidationError("qty", "must not be negative"))
	}

	equipment := models.Equipment{ID: id, Name: name, Qty: qty, Notes: req.Notes}
	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathStorage, id): equipment.Record(),
	}
	msg := fmt.Sprintf("Added new equipment %q with id %s.", name, id)
	if err := s.recorder.PerformUpdates(ctx, sess, updates, msg); err != nil {
		return nil, err
	}

	return &equipment, nil
}

// MoveToWaste takes qty units out of storage. The waste record for the id is overwritten
// with exactly qty, not accumulated.
func (s *Service) MoveToWaste(ctx context.Context, sess session.Session, id string, qty int) (*models.WasteItem, error) {
	const action = "move_to_waste"

	item, ok := s.state.Storage()[id]
	if !ok {
		return nil, inventory.Reject(action, custom_error.NewNotFoundError("equipment", id))
	}
	if qty <= 0 {
		return nil, inventory.Reject(action, custom_error.NewValidationError("quantity", "must be greater than zero"))
	}
	if qty > item.Qty {
		return nil, inventory.Reject(action, &custom_error.InsufficientQuantityError{Requested: qty, Available: item.Qty})
	}

	waste := models.WasteItem{ID: id, Name: item.Name, Qty: qty, From: models.WasteFromStorage}
	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathStorage, id, "qty"): item.Qty - qty,
		realtime.JoinPath(realtime.PathWaste, id): map[string]interface{}{
			"name": waste.Name,
			"qty":  waste.Qty,
			"from": waste.From,
		},
	}
	msg := fmt.Sprintf("Moved %d of %q to waste.", qty, item.Name)
	if err := s.recorder.PerformUpdates(ctx, sess, updates, msg); err != nil {
		return nil, err
	}

	return &waste, nil
}
