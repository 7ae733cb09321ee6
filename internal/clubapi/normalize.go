package clubapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"cellardoor/internal/domain"
	applog "cellardoor/internal/log"
	"cellardoor/internal/sanitize"
)

// Entries with no usable position sort after every positioned entry.
const positionLast = 999

func normalizeClub(raw any) (domain.Club, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.Club{}, fmt.Errorf("entry is %T, not an object", raw)
	}
	id := cast.ToString(m["id"])
	if id == "" {
		return domain.Club{}, errors.New("missing id")
	}
	name := strings.TrimSpace(cast.ToString(m["name"]))
	if name == "" {
		return domain.Club{}, errors.New("missing name")
	}
	return domain.Club{
		ID:          id,
		Name:        name,
		Description: sanitize.HTML(cast.ToString(m["description"])),
		Image:       normalizeImage(m["image"]),
		Packaging:   packagingType(cast.ToString(m["packagingType"])),
		Position:    position(m),
	}, nil
}

func normalizeDetails(raw any) (*domain.ClubDetails, error) {
	club, err := normalizeClub(raw)
	if err != nil {
		return nil, err
	}
	m := raw.(map[string]any)

	d := &domain.ClubDetails{
		Club:    club,
		MOVOnly: cast.ToBool(m["movOnly"]),
	}
	for i, raw := range toSlice(m["caseSizes"]) {
		cs, err := normalizeCaseSize(raw)
		if err != nil {
			applog.Warn(nil, "clubapi.caseSize.dropped", map[string]any{"club": club.ID, "index": i, "reason": err.Error()})
			continue
		}
		d.CaseSizes = append(d.CaseSizes, cs)
	}
	for i, raw := range toSlice(m["sellingPlans"]) {
		sp, err := normalizeSellingPlan(raw)
		if err != nil {
			applog.Warn(nil, "clubapi.sellingPlan.dropped", map[string]any{"club": club.ID, "index": i, "reason": err.Error()})
			continue
		}
		d.SellingPlans = append(d.SellingPlans, sp)
	}
	for _, raw := range toSlice(m["perks"]) {
		pm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		perk := domain.Perk{
			ID:          cast.ToString(pm["id"]),
			Title:       strings.TrimSpace(cast.ToString(pm["title"])),
			Description: sanitize.HTML(cast.ToString(pm["description"])),
		}
		if perk.Title != "" {
			d.Perks = append(d.Perks, perk)
		}
	}
	d.Offer = normalizeOffer(m["signUpOffer"])
	for _, raw := range toSlice(m["minimumOrderValues"]) {
		mm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		caseSizeID := cast.ToString(mm["caseSizeId"])
		value, err := cast.ToFloat64E(mm["value"])
		if caseSizeID == "" || err != nil {
			applog.Diag("clubapi.mov.skipped", map[string]any{"club": club.ID, "caseSize": caseSizeID, "value": mm["value"]})
			continue
		}
		d.MinimumOrder = append(d.MinimumOrder, domain.MinimumOrderValue{CaseSizeID: caseSizeID, Value: value})
	}
	for i, raw := range toSlice(m["products"]) {
		off, err := normalizeOffering(raw)
		if err != nil {
			applog.Warn(nil, "clubapi.product.dropped", map[string]any{"club": club.ID, "index": i, "reason": err.Error()})
			continue
		}
		d.Products = append(d.Products, off)
	}
	return d, nil
}

func normalizeCaseSize(raw any) (domain.CaseSize, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.CaseSize{}, fmt.Errorf("case size is %T, not an object", raw)
	}
	id := cast.ToString(m["id"])
	if id == "" {
		return domain.CaseSize{}, errors.New("missing id")
	}
	count, err := cast.ToIntE(m["bottleCount"])
	if err != nil || count <= 0 {
		return domain.CaseSize{}, fmt.Errorf("bad bottleCount %v", m["bottleCount"])
	}
	return domain.CaseSize{
		ID:          id,
		Title:       strings.TrimSpace(cast.ToString(m["title"])),
		BottleCount: count,
		Image:       normalizeImage(m["image"]),
	}, nil
}

func normalizeSellingPlan(raw any) (domain.SellingPlan, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.SellingPlan{}, fmt.Errorf("selling plan is %T, not an object", raw)
	}
	id := cast.ToString(m["id"])
	if id == "" {
		return domain.SellingPlan{}, errors.New("missing id")
	}
	sp := domain.SellingPlan{
		ID:            id,
		Name:          strings.TrimSpace(cast.ToString(m["name"])),
		Description:   sanitize.HTML(cast.ToString(m["description"])),
		Interval:      interval(cast.ToString(m["interval"])),
		IntervalCount: cast.ToInt(m["intervalCount"]),
	}
	if sp.IntervalCount <= 0 {
		sp.IntervalCount = 1
	}
	if dm, ok := m["discount"].(map[string]any); ok {
		amount, err := cast.ToFloat64E(dm["amount"])
		if err == nil {
			sp.Discount = &domain.Discount{
				Amount:      amount,
				Type:        discountType(cast.ToString(dm["type"])),
				Description: sanitize.HTML(cast.ToString(dm["description"])),
			}
		}
	}
	return sp, nil
}

func normalizeOffering(raw any) (domain.ProductOffering, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.ProductOffering{}, fmt.Errorf("product is %T, not an object", raw)
	}
	vm, ok := m["variant"].(map[string]any)
	if !ok {
		return domain.ProductOffering{}, errors.New("missing variant")
	}
	id := cast.ToString(vm["id"])
	if id == "" {
		return domain.ProductOffering{}, errors.New("missing variant id")
	}
	price, err := cast.ToFloat64E(vm["price"])
	if err != nil || price < 0 {
		applog.Diag("clubapi.variant.badPrice", map[string]any{"variant": id, "price": vm["price"]})
		price = 0
	}
	off := domain.ProductOffering{
		Variant: domain.Variant{
			ID:              id,
			Title:           strings.TrimSpace(cast.ToString(vm["title"])),
			Price:           price,
			Image:           normalizeImage(vm["image"]),
			Available:       cast.ToBool(vm["available"]),
			TracksInventory: cast.ToBool(vm["tracksInventory"]),
		},
		AddOnOnly: cast.ToBool(m["addOnOnly"]),
	}
	for _, raw := range toSlice(m["caseRestrictions"]) {
		rm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		r := domain.CaseRestriction{
			CaseSizeID: cast.ToString(rm["caseSizeId"]),
			Min:        cast.ToInt(rm["min"]),
			Suggested:  cast.ToInt(rm["suggested"]),
		}
		if r.CaseSizeID == "" {
			continue
		}
		if r.Min < 0 {
			r.Min = 0
		}
		if v, present := rm["max"]; present && v != nil {
			if max, err := cast.ToIntE(v); err == nil {
				r.Max = &max
			}
		}
		off.Restrictions = append(off.Restrictions, r)
	}
	for _, raw := range toSlice(m["individualPrices"]) {
		pm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		amount, err := cast.ToFloat64E(pm["amount"])
		caseSizeID := cast.ToString(pm["caseSizeId"])
		if caseSizeID == "" || err != nil {
			continue
		}
		off.IndividualPrices = append(off.IndividualPrices, domain.IndividualPrice{
			CaseSizeID:  caseSizeID,
			Amount:      amount,
			Type:        discountType(cast.ToString(pm["type"])),
			Description: sanitize.HTML(cast.ToString(pm["description"])),
		})
	}
	return off, nil
}

func normalizeOffer(raw any) *domain.SignUpOffer {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	o := &domain.SignUpOffer{
		ID:          cast.ToString(m["id"]),
		Title:       strings.TrimSpace(cast.ToString(m["title"])),
		Description: sanitize.HTML(cast.ToString(m["description"])),
		ProductID:   cast.ToString(m["productId"]),
		ExpiryDate:  strings.TrimSpace(cast.ToString(m["expiryDate"])),
	}
	if o.ID == "" && o.Title == "" {
		return nil
	}
	return o
}

func normalizeImage(raw any) *domain.Image {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	url := cast.ToString(m["url"])
	if url == "" {
		return nil
	}
	return &domain.Image{URL: url, Alt: cast.ToString(m["alt"])}
}

func position(m map[string]any) int {
	v, ok := m["position"]
	if !ok || v == nil {
		return positionLast
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return positionLast
	}
	return n
}

func sortClubs(clubs []domain.Club) {
	sort.SliceStable(clubs, func(i, j int) bool { return clubs[i].Position < clubs[j].Position })
}

func toSlice(raw any) []any {
	s, _ := raw.([]any)
	return s
}

func packagingType(s string) domain.PackagingType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CASE":
		return domain.PackagingCase
	case "MIXED":
		return domain.PackagingMixed
	default:
		return domain.PackagingBottle
	}
}

func interval(s string) domain.Interval {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAY":
		return domain.IntervalDay
	case "WEEK":
		return domain.IntervalWeek
	case "YEAR":
		return domain.IntervalYear
	default:
		return domain.IntervalMonth
	}
}

func discountType(s string) domain.DiscountType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed_amount":
		return domain.DiscountFixedAmount
	case "price":
		return domain.DiscountPrice
	default:
		return domain.DiscountPercentage
	}
}
