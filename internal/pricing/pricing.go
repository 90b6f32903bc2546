package pricing

// Package is the priced shape of a session package, decoupled from the
// stored Session so quotes can also run on reservation snapshots.
type Package struct {
	NumberOfSessions  int
	PricePerSession   int
	EquipmentIncluded bool
}

// Quote is the running order total shown on step 2 and charged at
// checkout. All amounts in whole EUR.
type Quote struct {
	BasePrice       int
	EquipmentCharge int
	Discount        int
	Total           int
}

// ForceEquipment applies the one-way toggle rule: a package that
// bundles equipment cannot be taken without it. The user keeps control
// only for non-bundled packages.
func ForceEquipment(pkg Package, includeEquipment bool) bool {
	if pkg.EquipmentIncluded {
		return true
	}
	return includeEquipment
}

// Compute prices the current selections. The equipment charge applies
// only when the user opted in on a package that does not bundle it, and
// the total never goes below zero no matter how large the discount.
func Compute(pkg Package, includeEquipment bool, equipmentPrice, discount int) Quote {
	includeEquipment = ForceEquipment(pkg, includeEquipment)

	base := pkg.NumberOfSessions * pkg.PricePerSession

	charge := 0
	if includeEquipment && !pkg.EquipmentIncluded {
		charge = equipmentPrice
	}

	total := base + charge - discount
	if total < 0 {
		total = 0
	}

	return Quote{
		BasePrice:       base,
		EquipmentCharge: charge,
		Discount:        discount,
		Total:           total,
	}
}
