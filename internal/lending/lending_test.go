package lending

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func units(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), wad)
}

func TestAccrueInterest(t *testing.T) {
	principal := ether(100)

	t.Run("one year at 5%", func(t *testing.T) {
		assert.Equal(t, ether(5).Dec(), AccrueInterest(principal, 500, SecondsPerYear).Dec())
	})

	t.Run("half a year", func(t *testing.T) {
		assert.Equal(t, units("2500000000000000000").Dec(), AccrueInterest(principal, 500, SecondsPerYear/2).Dec())
	})

	t.Run("no time elapsed", func(t *testing.T) {
		assert.True(t, AccrueInterest(principal, 500, 0).IsZero())
		assert.True(t, AccrueInterest(principal, 500, -10).IsZero())
	})

	t.Run("rounds down", func(t *testing.T) {
		assert.True(t, AccrueInterest(uint256.NewInt(1), 500, 1).IsZero())
		// 1e18 * 500 / 315360000000 = 1585489599.18
		assert.Equal(t, "1585489599", AccrueInterest(wad, 500, 1).Dec())
	})

	t.Run("daily", func(t *testing.T) {
		d := DailyInterest(ether(75), 500)
		assert.False(t, d.IsZero())
		assert.Equal(t, AccrueInterest(ether(75), 500, SecondsPerDay), d)
	})
}

func TestHealthFactor(t *testing.T) {
	// deposit 100 at $1, borrow 50 at $1
	coll := Value(ether(100), ether(1))
	debt := Value(ether(50), ether(1))
	hf := HealthFactor(coll, debt, 8000)
	assert.Equal(t, uint64(16000), hf.Uint64())
	assert.False(t, Liquidatable(hf))

	// collateral price drops to $0.50
	coll = Value(ether(100), units("500000000000000000"))
	hf = HealthFactor(coll, debt, 8000)
	assert.Equal(t, uint64(8000), hf.Uint64())
	assert.True(t, Liquidatable(hf))

	// no debt
	assert.True(t, HealthFactor(coll, new(uint256.Int), 8000).Eq(MaxHealthFactor))
	assert.False(t, Liquidatable(HealthFactor(coll, new(uint256.Int), 8000)))

	// the collateral factor reading of the same position
	assert.Equal(t, uint64(15000), HealthFactor(Value(ether(100), ether(1)), debt, 7500).Uint64())
}

func TestBorrowCapacity(t *testing.T) {
	assert.Equal(t, ether(75), BorrowCapacity(ether(100), 7500))
	assert.True(t, BorrowCapacity(new(uint256.Int), 7500).IsZero())
}

func TestRequiredCollateral(t *testing.T) {
	cases := []struct {
		debt  *uint256.Int
		price *uint256.Int
	}{
		{debt: ether(50), price: ether(1)},
		{debt: ether(75), price: units("800000000000000000")},
		{debt: units("123456789012345678901"), price: units("333333333333333333")},
		{debt: uint256.NewInt(1), price: ether(2000)},
	}

	for _, c := range cases {
		m := RequiredCollateral(c.debt, c.price, 7500)
		require.False(t, m.IsZero())

		capacity := BorrowCapacity(Value(m, c.price), 7500)
		assert.False(t, capacity.Lt(c.debt), "capacity of %s must cover %s", m.Dec(), c.debt.Dec())

		less := new(uint256.Int).SubUint64(m, 1)
		capacity = BorrowCapacity(Value(less, c.price), 7500)
		assert.True(t, capacity.Lt(c.debt), "%s must be minimal", m.Dec())
	}

	assert.True(t, RequiredCollateral(new(uint256.Int), ether(1), 7500).IsZero())
	assert.True(t, RequiredCollateral(ether(1), new(uint256.Int), 7500).Eq(maxUint))
}

func TestMaxSafeWithdraw(t *testing.T) {
	// 100 deposited, 50 owed, 66.67 must stay
	w := MaxSafeWithdraw(ether(100), ether(50), ether(1), 7500)
	assert.Equal(t, "33333333333333333333", w.Dec())

	// no debt, everything can leave
	assert.Equal(t, ether(100), MaxSafeWithdraw(ether(100), new(uint256.Int), ether(1), 7500))

	// underwater position
	assert.True(t, MaxSafeWithdraw(ether(10), ether(50), ether(1), 7500).IsZero())
}

func TestSeize(t *testing.T) {
	// 50 covered with a 5% bonus
	seized := Seize(ether(50), 10500, ether(100))
	assert.Equal(t, units("52500000000000000000"), seized)
	assert.Equal(t, units("2500000000000000000"), ProtocolCut(seized, ether(50)))

	// capped at the collateral left
	seized = Seize(ether(75), 10500, ether(10))
	assert.Equal(t, ether(10), seized)
	assert.True(t, ProtocolCut(seized, ether(75)).IsZero())
}

func TestUtilization(t *testing.T) {
	assert.True(t, Utilization(ether(50), new(uint256.Int)).IsZero())
	assert.Equal(t, uint64(5000), Utilization(ether(50), ether(100)).Uint64())
}
