package domain

// PackagingType describes how a club ships its deliveries.
type PackagingType string

const (
	PackagingBottle PackagingType = "BOTTLE"
	PackagingCase   PackagingType = "CASE"
	PackagingMixed  PackagingType = "MIXED"
)

// DiscountType matches the upstream pricing descriptor types.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
	DiscountPrice       DiscountType = "price"
)

// Interval is the delivery interval unit of a selling plan.
type Interval string

const (
	IntervalDay   Interval = "DAY"
	IntervalWeek  Interval = "WEEK"
	IntervalMonth Interval = "MONTH"
	IntervalYear  Interval = "YEAR"
)

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Club is a summary entry from the catalog listing endpoint.
// Position drives listing order; entries without one sort last.
type Club struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"` // sanitized HTML
	Image       *Image        `json:"image,omitempty"`
	Packaging   PackagingType `json:"packaging"`
	Position    int           `json:"position"`
}

// ClubDetails is the full club object from the detail endpoint,
// immutable for the duration of a wizard session.
type ClubDetails struct {
	Club
	CaseSizes    []CaseSize          `json:"caseSizes"`
	SellingPlans []SellingPlan       `json:"sellingPlans"`
	Perks        []Perk              `json:"perks,omitempty"`
	Offer        *SignUpOffer        `json:"offer,omitempty"`
	MOVOnly      bool                `json:"movOnly"`
	MinimumOrder []MinimumOrderValue `json:"minimumOrderValues,omitempty"`
	Products     []ProductOffering   `json:"products"`
}

type CaseSize struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	BottleCount int    `json:"bottleCount"`
	Image       *Image `json:"image,omitempty"`
}

type Discount struct {
	Amount      float64      `json:"amount"`
	Type        DiscountType `json:"type"`
	Description string       `json:"description,omitempty"`
}

type SellingPlan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Interval      Interval  `json:"interval"`
	IntervalCount int       `json:"intervalCount"`
	Discount      *Discount `json:"discount,omitempty"`
}

type Perk struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// MinimumOrderValue is the minimum subscription subtotal required
// for a case size when the club has MOVOnly set.
type MinimumOrderValue struct {
	CaseSizeID string  `json:"caseSizeId"`
	Value      float64 `json:"value"`
}

// SignUpOffer is a promotional bonus attached to a club. Validity is
// derived, never stored; see the offer package.
type SignUpOffer struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"` // sanitized HTML
	ProductID   string `json:"productId,omitempty"`
	ExpiryDate  string `json:"expiryDate,omitempty"` // ISO-8601, may be empty
}

// Variant is the purchasable product variant behind an offering.
type Variant struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Price           float64 `json:"price"`
	Image           *Image  `json:"image,omitempty"`
	Available       bool    `json:"available"`
	TracksInventory bool    `json:"tracksInventory"`
}

// CaseRestriction bounds a product's quantity for one case size.
// Max == nil means unbounded above (capacity still applies).
type CaseRestriction struct {
	CaseSizeID string `json:"caseSizeId"`
	Min        int    `json:"min"`
	Max        *int   `json:"max,omitempty"`
	Suggested  int    `json:"suggested,omitempty"`
}

// IndividualPrice overrides the selling-plan discount for one case size.
type IndividualPrice struct {
	CaseSizeID  string       `json:"caseSizeId"`
	Amount      float64      `json:"amount"`
	Type        DiscountType `json:"type"`
	Description string       `json:"description,omitempty"`
}

// ProductOffering is a variant plus its club-specific constraints.
type ProductOffering struct {
	Variant          Variant           `json:"variant"`
	AddOnOnly        bool              `json:"addOnOnly"`
	Restrictions     []CaseRestriction `json:"restrictions,omitempty"`
	IndividualPrices []IndividualPrice `json:"individualPrices,omitempty"`
}

// SelectedProduct is one wizard selection line. UnitPrice is the
// resolved post-discount price; BasePrice the full retail price.
type SelectedProduct struct {
	VariantID string  `json:"variantId"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	IsAddOn   bool    `json:"isAddOn"`
	BasePrice float64 `json:"basePrice"`
	UnitPrice float64 `json:"unitPrice"`
}

// LineTotal is the selection's extended price.
func (s SelectedProduct) LineTotal() float64 { return float64(s.Quantity) * s.UnitPrice }

// RestrictionFor returns the offering's restriction for a case size,
// or nil when the product is unrestricted for that size.
func (p ProductOffering) RestrictionFor(caseSizeID string) *CaseRestriction {
	for i := range p.Restrictions {
		if p.Restrictions[i].CaseSizeID == caseSizeID {
			return &p.Restrictions[i]
		}
	}
	return nil
}

// IndividualPriceFor returns the per-case price override, if any.
func (p ProductOffering) IndividualPriceFor(caseSizeID string) *IndividualPrice {
	for i := range p.IndividualPrices {
		if p.IndividualPrices[i].CaseSizeID == caseSizeID {
			return &p.IndividualPrices[i]
		}
	}
	return nil
}

// OfferingByVariant looks up a product offering by variant id.
func (d *ClubDetails) OfferingByVariant(variantID string) *ProductOffering {
	for i := range d.Products {
		if d.Products[i].Variant.ID == variantID {
			return &d.Products[i]
		}
	}
	return nil
}

// CaseSizeByID looks up a case size by id.
func (d *ClubDetails) CaseSizeByID(id string) *CaseSize {
	for i := range d.CaseSizes {
		if d.CaseSizes[i].ID == id {
			return &d.CaseSizes[i]
		}
	}
	return nil
}

// SellingPlanByID looks up a selling plan by id.
func (d *ClubDetails) SellingPlanByID(id string) *SellingPlan {
	for i := range d.SellingPlans {
		if d.SellingPlans[i].ID == id {
			return &d.SellingPlans[i]
		}
	}
	return nil
}

// MinimumOrderFor returns the MOV configured for a case size, if any.
func (d *ClubDetails) MinimumOrderFor(caseSizeID string) (float64, bool) {
	for _, m := range d.MinimumOrder {
		if m.CaseSizeID == caseSizeID {
			return m.Value, true
		}
	}
	return 0, false
}
