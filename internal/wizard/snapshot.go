package wizard

import "cellardoor/internal/domain"

// Snapshot is the persistable form of a wizard session. Only ids and
// quantities are stored; prices are re-resolved against fresh club
// data on restore, so a stale snapshot can never pin an old price.
type Snapshot struct {
	Step     int            `json:"step"`
	CaseSize string         `json:"caseSizeId,omitempty"`
	Plan     string         `json:"planId,omitempty"`
	Products []SnapshotLine `json:"products,omitempty"`
	AddOns   []SnapshotLine `json:"addOns,omitempty"`
}

type SnapshotLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

func (w *Wizard) Snapshot() Snapshot {
	snap := Snapshot{Step: w.state.Step}
	if w.state.CaseSize != nil {
		snap.CaseSize = w.state.CaseSize.ID
	}
	if w.state.Plan != nil {
		snap.Plan = w.state.Plan.ID
	}
	for _, sel := range w.state.Products {
		snap.Products = append(snap.Products, SnapshotLine{VariantID: sel.VariantID, Quantity: sel.Quantity})
	}
	for _, sel := range w.state.AddOns {
		snap.AddOns = append(snap.AddOns, SnapshotLine{VariantID: sel.VariantID, Quantity: sel.Quantity})
	}
	return snap
}

// Restore replays a snapshot against current club data. Selections
// that no longer fit (removed variants, tightened restrictions) are
// dropped, and the step position is re-validated forward, so the
// restored wizard never holds an illegal state.
func Restore(club *domain.ClubDetails, cfg Config, snap Snapshot) *Wizard {
	w := New(club, cfg)
	if snap.CaseSize == "" || !w.SelectCaseSize(snap.CaseSize) {
		return w
	}
	if snap.Plan != "" {
		w.SelectSellingPlan(snap.Plan)
	}
	for _, line := range snap.Products {
		w.SetProductQuantity(line.VariantID, line.Quantity, false)
	}
	for _, line := range snap.AddOns {
		w.SetProductQuantity(line.VariantID, line.Quantity, true)
	}
	w.state.Errors = map[string]string{}
	for w.state.Step < snap.Step {
		if !w.Next() {
			break
		}
	}
	return w
}
