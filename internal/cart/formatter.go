// Package cart turns a terminal wizard state into the cart-mutation
// payload the checkout platform consumes. The wizard's review-step
// validation guards every precondition here; reaching a ValidationError
// through the UI indicates a caller bug.
package cart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"cellardoor/internal/domain"
	"cellardoor/internal/wizard"
)

// ValidationError reports a violated formatter precondition.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "cart: " + e.Reason }

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Line struct {
	MerchandiseID string      `json:"merchandiseId"`
	Quantity      int         `json:"quantity"`
	SellingPlanID string      `json:"sellingPlanId,omitempty"`
	Attributes    []Attribute `json:"attributes"`
}

type Payload struct {
	Lines      []Line      `json:"lines"`
	Attributes []Attribute `json:"attributes"`
	Note       string      `json:"note"`
}

// ValidationResult is the structural check output for a payload.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

var reNumericID = regexp.MustCompile(`^[0-9]+$`)

// FormatCart builds the checkout payload from a terminal wizard state.
// Case size, selling plan, and at least one main wine are required.
func FormatCart(club *domain.ClubDetails, st wizard.State) (*Payload, error) {
	switch {
	case st.CaseSize == nil:
		return nil, &ValidationError{Reason: "no case size selected"}
	case st.Plan == nil:
		return nil, &ValidationError{Reason: "no selling plan selected"}
	case len(st.Products) == 0:
		return nil, &ValidationError{Reason: "no wines selected"}
	}

	freq := frequencyLabel(st.Plan)
	p := &Payload{
		Attributes: []Attribute{
			{Key: "_wine_club_id", Value: club.ID},
			{Key: "_wine_club_name", Value: club.Name},
			{Key: "_case_size", Value: st.CaseSize.Title},
			{Key: "_frequency", Value: freq},
			{Key: "_selection_ref", Value: uuid.NewString()},
		},
		Note: fmt.Sprintf("%s: %s, delivered %s", club.Name, st.CaseSize.Title, strings.ToLower(freq)),
	}

	planRef := SellingPlanGID(st.Plan.ID)
	for _, sel := range st.Products {
		p.Lines = append(p.Lines, Line{
			MerchandiseID: MerchandiseGID(sel.VariantID),
			Quantity:      sel.Quantity,
			SellingPlanID: planRef,
			Attributes:    []Attribute{{Key: "_selection_type", Value: "subscription"}},
		})
	}
	// Add-on lines are one-off purchases: no selling plan reference.
	for _, sel := range st.AddOns {
		p.Lines = append(p.Lines, Line{
			MerchandiseID: MerchandiseGID(sel.VariantID),
			Quantity:      sel.Quantity,
			Attributes:    []Attribute{{Key: "_selection_type", Value: "add_on"}},
		})
	}
	return p, nil
}

// MerchandiseGID normalizes a variant id to the platform reference
// format. Correctly-formatted ids pass through; bare numeric ids are
// converted; anything else passes through as-is, best effort.
func MerchandiseGID(id string) string {
	return gid(id, "ProductVariant")
}

// SellingPlanGID normalizes a selling plan id the same way.
func SellingPlanGID(id string) string {
	return gid(id, "SellingPlan")
}

func gid(id, kind string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	if reNumericID.MatchString(id) {
		return fmt.Sprintf("gid://shopify/%s/%s", kind, id)
	}
	return id
}

// ValidateCartData structurally checks a payload before hand-off. It
// does not re-run business validation.
func ValidateCartData(p *Payload) ValidationResult {
	var errs []string
	if p == nil || len(p.Lines) == 0 {
		return ValidationResult{IsValid: false, Errors: []string{"payload has no lines"}}
	}
	for i, line := range p.Lines {
		if line.MerchandiseID == "" {
			errs = append(errs, fmt.Sprintf("line %d: missing merchandise reference", i))
		}
		if line.Quantity <= 0 {
			errs = append(errs, fmt.Sprintf("line %d: quantity must be positive", i))
		}
	}
	hasClubID := false
	for _, a := range p.Attributes {
		if a.Key == "_wine_club_id" && a.Value != "" {
			hasClubID = true
		}
	}
	if !hasClubID {
		errs = append(errs, "missing club identifier attribute")
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func frequencyLabel(plan *domain.SellingPlan) string {
	unit := strings.ToLower(string(plan.Interval))
	if plan.IntervalCount == 1 {
		return fmt.Sprintf("Every %s", unit)
	}
	return fmt.Sprintf("Every %d %ss", plan.IntervalCount, unit)
}
