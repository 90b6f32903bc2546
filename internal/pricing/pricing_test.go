package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeWithEquipment(t *testing.T) {
	pkg := Package{NumberOfSessions: 10, PricePerSession: 15, EquipmentIncluded: false}

	q := Compute(pkg, true, 30, 0)
	require.Equal(t, 150, q.BasePrice)
	require.Equal(t, 30, q.EquipmentCharge)
	require.Equal(t, 180, q.Total)
}

func TestComputeFixedDiscount(t *testing.T) {
	pkg := Package{NumberOfSessions: 10, PricePerSession: 15}

	q := Compute(pkg, true, 30, 50)
	require.Equal(t, 130, q.Total)
}

func TestComputeClampsAtZero(t *testing.T) {
	pkg := Package{NumberOfSessions: 10, PricePerSession: 15}

	// a degenerate 200% promo resolves to a discount of 360 on a 180 subtotal
	q := Compute(pkg, true, 30, 360)
	require.Equal(t, 0, q.Total)
}

func TestComputeBundledPackageNeverChargesEquipment(t *testing.T) {
	pkg := Package{NumberOfSessions: 8, PricePerSession: 20, EquipmentIncluded: true}

	// toggle off is overridden for bundled packages
	q := Compute(pkg, false, 30, 0)
	require.Equal(t, 0, q.EquipmentCharge)
	require.Equal(t, 160, q.Total)
}

func TestComputeEquipmentDeclined(t *testing.T) {
	pkg := Package{NumberOfSessions: 5, PricePerSession: 12}

	q := Compute(pkg, false, 30, 0)
	require.Equal(t, 0, q.EquipmentCharge)
	require.Equal(t, 60, q.Total)
}

func TestForceEquipment(t *testing.T) {
	bundled := Package{EquipmentIncluded: true}
	plain := Package{}

	require.True(t, ForceEquipment(bundled, false))
	require.True(t, ForceEquipment(bundled, true))
	require.True(t, ForceEquipment(plain, true))
	require.False(t, ForceEquipment(plain, false))
}
