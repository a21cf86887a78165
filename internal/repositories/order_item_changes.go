package repositories

import "orderhub/internal/models"

// ItemChanges is the minimal set of writes that makes the persisted items of an
// order match its aggregate.
type ItemChanges struct {
	Created []*models.OrderItem
	Updated []*models.OrderItem
	// Deleted holds persisted rows, so their IDs are the stored ones.
	Deleted []*models.OrderItem
}

func (d ItemChanges) Empty() bool {
	return len(d.Created) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// DiffOrderItems compares persisted and current items by sku.
//
// An item present on both sides is an update candidate only when its quantity
// changed; a price change alone is not written.
func DiffOrderItems(existing, current []*models.OrderItem) ItemChanges {
	existingBySku := make(map[string]*models.OrderItem, len(existing))
	for _, item := range existing {
		existingBySku[item.Sku] = item
	}
	currentSkus := make(map[string]struct{}, len(current))
	for _, item := range current {
		currentSkus[item.Sku] = struct{}{}
	}

	var diff ItemChanges
	for _, item := range current {
		stored, ok := existingBySku[item.Sku]
		if !ok {
			diff.Created = append(diff.Created, item)
			continue
		}
		if stored.Quantity != item.Quantity {
			diff.Updated = append(diff.Updated, item)
		}
	}
	for _, item := range existing {
		if _, ok := currentSkus[item.Sku]; !ok {
			diff.Deleted = append(diff.Deleted, item)
		}
	}
	return diff
}
