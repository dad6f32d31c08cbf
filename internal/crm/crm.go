// Package crm joins threads to customer records through their order IDs.
package crm

import "ceassist/internal/models"

// DefaultTier is used when a thread has no matching customer.
const DefaultTier = "Standard"

// Conflict records an order ID claimed by more than one customer. The
// later claim is the one the index keeps.
type Conflict struct {
	OrderID  string
	Previous string
	Winner   string
}

// Index maps order IDs to the customer that owns them.
type Index struct {
	byOrder   map[string]int
	customers []models.CustomerRecord
	conflicts []Conflict
}

// BuildIndex indexes every order of every customer. When two customers list
// the same order the last one wins, so results depend on input order.
func BuildIndex(customers []models.CustomerRecord) *Index {
	idx := &Index{
		byOrder:   make(map[string]int),
		customers: customers,
	}
	for pos, c := range customers {
		for _, orderID := range c.Orders {
			if prev, ok := idx.byOrder[orderID]; ok && prev != pos {
				idx.conflicts = append(idx.conflicts, Conflict{
					OrderID:  orderID,
					Previous: models.Value(customers[prev].CustomerID),
					Winner:   models.Value(c.CustomerID),
				})
			}
			idx.byOrder[orderID] = pos
		}
	}
	return idx
}

// Lookup returns the customer owning orderID.
func (i *Index) Lookup(orderID string) (models.CustomerRecord, bool) {
	if i == nil {
		return models.CustomerRecord{}, false
	}
	pos, ok := i.byOrder[orderID]
	if !ok {
		return models.CustomerRecord{}, false
	}
	return i.customers[pos], true
}

// Len returns the number of indexed order IDs.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byOrder)
}

// Conflicts returns the order IDs claimed by more than one customer.
func (i *Index) Conflicts() []Conflict {
	if i == nil {
		return nil
	}
	return i.conflicts
}

// DefaultContext is the CRM context of a thread with no matching customer.
func DefaultContext(slaHours int) models.CRMContext {
	return models.CRMContext{
		CustomerTier:        DefaultTier,
		SLAHours:            slaHours,
		Entitlements:        []string{},
		ShippingConstraints: []string{},
	}
}

// Enrich overlays the matching customer's attributes onto base. Without a
// match base is returned unchanged. A customer without a tier keeps the
// tier already in base.
func Enrich(base models.CRMContext, orderID *string, idx *Index) models.CRMContext {
	if orderID == nil {
		return base
	}
	customer, ok := idx.Lookup(*orderID)
	if !ok {
		return base
	}

	enriched := base
	if customer.Tier != nil {
		enriched.CustomerTier = *customer.Tier
	}
	enriched.Entitlements = nonNil(customer.Entitlements)
	enriched.ShippingConstraints = nonNil(customer.ShippingConstraints)
	enriched.CustomerID = customer.CustomerID
	return enriched
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
