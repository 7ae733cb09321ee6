// Package wizard holds the multi-step club selection state machine.
// All mutation happens through the operations below; the state is the
// single source of truth and is handed to consumers as a value.
package wizard

import (
	"fmt"

	"cellardoor/internal/domain"
	applog "cellardoor/internal/log"
	"cellardoor/internal/pricing"
)

// StepKind names the wizard phases in flow order.
type StepKind string

const (
	StepCaseSize  StepKind = "case_size"
	StepFrequency StepKind = "frequency"
	StepQuantity  StepKind = "quantity"
	StepAddOns    StepKind = "add_ons"
	StepReview    StepKind = "review"
)

// Config selects the flow variant. The default is the 4-step flow with
// add-ons folded into the quantity step; AddOnStep inserts a dedicated
// add-on step before review.
type Config struct {
	AddOnStep bool
}

// State is the wizard's full observable state. Step is 1-based.
type State struct {
	Step       int                      `json:"step"`
	StepKind   StepKind                 `json:"stepKind"`
	StepCount  int                      `json:"stepCount"`
	CaseSize   *domain.CaseSize         `json:"caseSize,omitempty"`
	Plan       *domain.SellingPlan      `json:"plan,omitempty"`
	Products   []domain.SelectedProduct `json:"products"`
	AddOns     []domain.SelectedProduct `json:"addOns"`
	Errors     map[string]string        `json:"errors"`
	Submitting bool                     `json:"submitting"`
	Totals     pricing.Totals           `json:"totals"`
}

type Wizard struct {
	club  *domain.ClubDetails
	steps []StepKind
	state State
}

func New(club *domain.ClubDetails, cfg Config) *Wizard {
	steps := []StepKind{StepCaseSize, StepFrequency, StepQuantity, StepReview}
	if cfg.AddOnStep {
		steps = []StepKind{StepCaseSize, StepFrequency, StepQuantity, StepAddOns, StepReview}
	}
	w := &Wizard{club: club, steps: steps}
	w.reset()
	return w
}

func (w *Wizard) reset() {
	w.state = State{
		Step:      1,
		StepKind:  w.steps[0],
		StepCount: len(w.steps),
		Products:  []domain.SelectedProduct{},
		AddOns:    []domain.SelectedProduct{},
		Errors:    map[string]string{},
	}
}

// Reset returns the wizard to its initial state.
func (w *Wizard) Reset() { w.reset() }

func (w *Wizard) Club() *domain.ClubDetails { return w.club }

// State returns the current state value.
func (w *Wizard) State() State { return w.state }

// Dirty reports whether any selection exists. The exit guard uses this
// to decide whether leaving needs confirmation.
func (w *Wizard) Dirty() bool {
	return w.state.CaseSize != nil || w.state.Plan != nil || len(w.state.Products) > 0 || len(w.state.AddOns) > 0
}

func (w *Wizard) SetSubmitting(v bool) { w.state.Submitting = v }

// SelectCaseSize picks a case size and cascades: selling plan, main
// products, add-ons, and errors are all cleared. No stale selection
// survives a case-size change.
func (w *Wizard) SelectCaseSize(caseSizeID string) bool {
	cs := w.club.CaseSizeByID(caseSizeID)
	if cs == nil {
		w.state.Errors = map[string]string{"caseSize": "That case size is no longer available."}
		return false
	}
	w.state.CaseSize = cs
	w.state.Plan = nil
	w.state.Products = []domain.SelectedProduct{}
	w.state.AddOns = []domain.SelectedProduct{}
	w.state.Errors = map[string]string{}
	w.recalc()
	return true
}

// SelectSellingPlan picks a delivery frequency. Fails (validation, not
// panic) when no case size has been chosen yet.
func (w *Wizard) SelectSellingPlan(planID string) bool {
	if w.state.CaseSize == nil {
		w.state.Errors = map[string]string{"frequency": "Choose a case size first."}
		return false
	}
	plan := w.club.SellingPlanByID(planID)
	if plan == nil {
		w.state.Errors = map[string]string{"frequency": "That delivery frequency is no longer available."}
		return false
	}
	w.state.Plan = plan
	w.state.Errors = map[string]string{}
	// Plan discounts change every resolved price.
	w.reprice()
	return true
}

// SetProductQuantity upserts a selection line keyed by variant id.
// Quantity <= 0 removes the line. The call is rejected with no state
// change when it would push the product past its case restriction max
// or push main-wine bottles past the case-size capacity. Add-ons are
// exempt from capacity.
func (w *Wizard) SetProductQuantity(variantID string, qty int, isAddOn bool) bool {
	off := w.club.OfferingByVariant(variantID)
	if off == nil {
		w.state.Errors["quantity"] = "That wine is no longer available."
		return false
	}
	isAddOn = isAddOn || off.AddOnOnly

	if qty <= 0 {
		w.removeSelection(variantID, isAddOn)
		w.recalc()
		return true
	}

	caseSizeID := ""
	if w.state.CaseSize != nil {
		caseSizeID = w.state.CaseSize.ID
	}
	if !isAddOn {
		if w.state.CaseSize == nil {
			w.state.Errors["quantity"] = "Choose a case size first."
			return false
		}
		if r := off.RestrictionFor(caseSizeID); r != nil && r.Max != nil && qty > *r.Max {
			return false
		}
		if w.mainBottleCount()-w.selectedQty(variantID, false)+qty > w.state.CaseSize.BottleCount {
			return false
		}
	}

	sel := domain.SelectedProduct{
		VariantID: variantID,
		Title:     off.Variant.Title,
		Quantity:  qty,
		IsAddOn:   isAddOn,
		BasePrice: off.Variant.Price,
		UnitPrice: pricing.UnitPrice(*off, caseSizeID, w.state.Plan),
	}
	w.upsertSelection(sel)
	w.recalc()
	return true
}

// GoToStep moves to step n (1-based). Moving forward requires the
// current step to validate; moving backward always succeeds. Any step
// change clears the error map.
func (w *Wizard) GoToStep(n int) bool {
	if n < 1 || n > len(w.steps) || n == w.state.Step {
		return false
	}
	if n > w.state.Step && !w.ValidateCurrentStep() {
		return false
	}
	w.state.Step = n
	w.state.StepKind = w.steps[n-1]
	w.state.Errors = map[string]string{}
	return true
}

func (w *Wizard) Next() bool     { return w.GoToStep(w.state.Step + 1) }
func (w *Wizard) Previous() bool { return w.GoToStep(w.state.Step - 1) }

// ValidateCurrentStep checks the active step's requirements, recording
// a message per failed field. It never changes the step position.
func (w *Wizard) ValidateCurrentStep() bool {
	errs := map[string]string{}
	switch w.steps[w.state.Step-1] {
	case StepCaseSize:
		w.validateCaseSize(errs)
	case StepFrequency:
		w.validateFrequency(errs)
	case StepQuantity:
		w.validateQuantity(errs)
	case StepAddOns:
		// Add-ons are optional; nothing to check.
	case StepReview:
		w.validateCaseSize(errs)
		w.validateFrequency(errs)
		w.validateQuantity(errs)
	}
	w.state.Errors = errs
	return len(errs) == 0
}

func (w *Wizard) validateCaseSize(errs map[string]string) {
	if w.state.CaseSize == nil {
		errs["caseSize"] = "Choose a case size to continue."
	}
}

func (w *Wizard) validateFrequency(errs map[string]string) {
	if len(w.club.SellingPlans) == 0 {
		errs["frequency"] = "No delivery frequency is available for this club."
		return
	}
	if w.state.Plan == nil {
		errs["frequency"] = "Choose a delivery frequency to continue."
	}
}

func (w *Wizard) validateQuantity(errs map[string]string) {
	if len(w.state.Products) == 0 {
		errs["quantity"] = "Select at least one wine for your case."
		return
	}
	caseSizeID := ""
	if w.state.CaseSize != nil {
		caseSizeID = w.state.CaseSize.ID
	}
	for _, sel := range w.state.Products {
		off := w.club.OfferingByVariant(sel.VariantID)
		if off == nil {
			continue
		}
		r := off.RestrictionFor(caseSizeID)
		if r == nil {
			continue
		}
		if sel.Quantity < r.Min || (r.Max != nil && sel.Quantity > *r.Max) {
			errs["quantity"] = fmt.Sprintf("%s must have between %d and %s bottles.", sel.Title, r.Min, maxLabel(r.Max))
		}
	}
	w.validateMinimumOrder(errs)
}

// validateMinimumOrder applies the MOV rule against the discounted
// subscription subtotal. Broken MOV values are skipped, never compared.
func (w *Wizard) validateMinimumOrder(errs map[string]string) {
	if !w.club.MOVOnly || w.state.CaseSize == nil {
		return
	}
	mov, ok := w.club.MinimumOrderFor(w.state.CaseSize.ID)
	if !ok {
		return
	}
	if mov <= 0 {
		applog.Diag("wizard.mov.skipped", map[string]any{"club": w.club.ID, "caseSize": w.state.CaseSize.ID, "value": mov})
		return
	}
	if w.state.Totals.SubscriptionSubtotal < mov {
		errs["minimumOrder"] = fmt.Sprintf("This case size has a minimum order of $%.2f.", mov)
	}
}

func (w *Wizard) mainBottleCount() int {
	n := 0
	for _, sel := range w.state.Products {
		n += sel.Quantity
	}
	return n
}

func (w *Wizard) selectedQty(variantID string, isAddOn bool) int {
	for _, sel := range w.selections(isAddOn) {
		if sel.VariantID == variantID {
			return sel.Quantity
		}
	}
	return 0
}

func (w *Wizard) selections(isAddOn bool) []domain.SelectedProduct {
	if isAddOn {
		return w.state.AddOns
	}
	return w.state.Products
}

func (w *Wizard) upsertSelection(sel domain.SelectedProduct) {
	list := w.selections(sel.IsAddOn)
	for i := range list {
		if list[i].VariantID == sel.VariantID {
			list[i] = sel
			return
		}
	}
	if sel.IsAddOn {
		w.state.AddOns = append(w.state.AddOns, sel)
	} else {
		w.state.Products = append(w.state.Products, sel)
	}
}

func (w *Wizard) removeSelection(variantID string, isAddOn bool) {
	list := w.selections(isAddOn)
	out := list[:0]
	for _, sel := range list {
		if sel.VariantID != variantID {
			out = append(out, sel)
		}
	}
	if isAddOn {
		w.state.AddOns = out
	} else {
		w.state.Products = out
	}
}

// reprice re-resolves every line's unit price, then recomputes totals.
func (w *Wizard) reprice() {
	caseSizeID := ""
	if w.state.CaseSize != nil {
		caseSizeID = w.state.CaseSize.ID
	}
	for _, list := range [][]domain.SelectedProduct{w.state.Products, w.state.AddOns} {
		for i := range list {
			if off := w.club.OfferingByVariant(list[i].VariantID); off != nil {
				list[i].UnitPrice = pricing.UnitPrice(*off, caseSizeID, w.state.Plan)
				list[i].BasePrice = off.Variant.Price
			}
		}
	}
	w.recalc()
}

func (w *Wizard) recalc() {
	w.state.Totals = pricing.Aggregate(w.state.Products, w.state.AddOns)
}

func maxLabel(max *int) string {
	if max == nil {
		return "any number of"
	}
	return fmt.Sprintf("%d", *max)
}
