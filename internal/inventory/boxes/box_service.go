package boxes

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

type Service struct {
	state    inventory.State
	recorder inventory.Recorder
}

func NewService(state inventory.State, recorder inventory.Recorder) *Service {
	return &Service{state: state, recorder: recorder}
}

func (s *Service) List() []models.Box {
	data := s.state.Boxes()
	boxes := make([]models.Box, 0, len(data))
	for _, id := range realtime.SortedIDs(data) {
		box := data[id]
		box.ID = id
		if box.Items == nil {
			box.Items = models.BoxItems{}
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func (s *Service) Get(id string) (*models.Box, error) {
	box, ok := s.state.Boxes()[id]
	if !ok {
		return nil, custom_error.NewNotFoundError("box", id)
	}
	box.ID = id
	if box.Items == nil {
		box.Items = models.BoxItems{}
	}
	return &box, nil
}

func (s *Service) CreateBox(ctx context.Context, sess session.Session, req CreateBoxRequest) (*models.Box, error) {
	const action = "create_box"

	id := strings.TrimSpace(req.ID)
	recipient := strings.TrimSpace(req.Recipient)
	site := strings.TrimSpace(req.Site)

	if err := inventory.ValidateID("id", id); err != nil {
		return nil, inventory.Reject(action, err)
	}
	if recipient == "" {
		return nil, inventory.Reject(action, custom_error.NewValidationError("recipient", "is required"))
	}
	if site == "" {
		return nil, inventory.Reject(action, custom_error.NewValidationError("site", "is required"))
	}

	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathBoxes, id): map[string]interface{}{
			"recipient": recipient,
			"site":      site,
			"items":     map[string]interface{}{},
		},
	}
	msg := fmt.Sprintf("Created new box %q for recipient %s.", id, recipient)
	if err := s.recorder.PerformUpdates(ctx, sess, updates, msg); err != nil {
		return nil, err
	}

	return &models.Box{ID: id, Recipient: recipient, Site: site, Items: models.BoxItems{}}, nil
}

func (s *Service) UpdateDetails(ctx context.Context, sess session.Session, id, recipient, site string) error {
	const action = "update_box"

	if _, ok := s.state.Boxes()[id]; !ok {
		return inventory.Reject(action, custom_error.NewNotFoundError("box", id))
	}
	recipient = strings.TrimSpace(recipient)
	site = strings.TrimSpace(site)
	if recipient == "" {
		return inventory.Reject(action, custom_error.NewValidationError("recipient", "is required"))
	}
	if site == "" {
		return inventory.Reject(action, custom_error.NewValidationError("site", "is required"))
	}

	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathBoxes, id, "recipient"): recipient,
		realtime.JoinPath(realtime.PathBoxes, id, "site"):      site,
	}
	return s.recorder.PerformUpdates(ctx, sess, updates, fmt.Sprintf("Updated details of box %q.", id))
}

// AddItem moves qty units of itemID from storage into the box in one batch.
func (s *Service) AddItem(ctx context.Context, sess session.Session, boxID, itemID string, qty int) error {
	const action = "add_box_item"

	box, ok := s.state.Boxes()[boxID]
	if !ok {
		return inventory.Reject(action, custom_error.NewNotFoundError("box", boxID))
	}
	item, ok := s.state.Storage()[itemID]
	if !ok {
		return inventory.Reject(action, custom_error.NewNotFoundError("equipment", itemID))
	}
	if qty <= 0 {
		return inventory.Reject(action, custom_error.NewValidationError("quantity", "must be greater than zero"))
	}
	if qty > item.Qty {
		return inventory.Reject(action, &custom_error.InsufficientQuantityError{Requested: qty, Available: item.Qty})
	}

	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathStorage, itemID, "qty"):         item.Qty - qty,
		realtime.JoinPath(realtime.PathBoxes, boxID, "items", itemID): box.Quantity(itemID) + qty,
	}
	msg := fmt.Sprintf("Added %d of %q to box %q.", qty, item.Name, boxID)
	return s.recorder.PerformUpdates(ctx, sess, updates, msg)
}

// RemoveItem returns qty units of itemID from the box to storage. A box item that
// reaches zero is deleted rather than stored as zero.
func (s *Service) RemoveItem(ctx context.Context, sess session.Session, boxID, itemID string, qty int) error {
	const action = "remove_box_item"

	box, ok := s.state.Boxes()[boxID]
	if !ok {
		return inventory.Reject(action, custom_error.NewNotFoundError("box", boxID))
	}
	held := box.Quantity(itemID)
	if held == 0 {
		return inventory.Reject(action, custom_error.NewNotFoundError("box item", itemID))
	}
	if qty <= 0 {
		return inventory.Reject(action, custom_error.NewValidationError("quantity", "must be greater than zero"))
	}
	if qty > held {
		return inventory.Reject(action, &custom_error.InsufficientQuantityError{Requested: qty, Available: held})
	}

	var boxQty interface{}
	if remaining := held - qty; remaining > 0 {
		boxQty = remaining
	}

	// the storage record may be gone; the quantity is restored regardless
	item := s.state.Storage()[itemID]
	name := item.Name
	if name == "" {
		name = itemID
	}

	updates := map[string]interface{}{
		realtime.JoinPath(realtime.PathBoxes, boxID, "items", itemID): boxQty,
		realtime.JoinPath(realtime.PathStorage, itemID, "qty"):         item.Qty + qty,
	}
	msg := fmt.Sprintf("Removed %d of %q from box %q.", qty, name, boxID)
	return s.recorder.PerformUpdates(ctx, sess, updates, msg)
}
