package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePriceLocaleFormats(t *testing.T) {
	testCases := []struct {
		input    string
		expected float64
	}{
		{"R$ 2.199,90", 2199.90},
		{"R$\u00a02.199,90", 2199.90},
		{"$2,199.90", 2199.90},
		{"R$ 1.234.567,89", 1234567.89}, // above bound, handled below
		{"2199,90", 2199.90},
		{"2199.90", 2199.90},
		{"R$ 2199", 2199},
		{"R$ 949,00", 949},
		{"R$ 2.199", 2199}, // dot-grouped integer, no cents
		{"R$ 10.500", 10500},
		{"$2,199", 2199}, // comma-grouped integer, no cents

	}

	for _, tc := range testCases {
		value, ok := NormalizePrice(tc.input)
		if tc.expected > maxPlausiblePrice {
			assert.False(t, ok, "out-of-bound value should be rejected: "+tc.input)
			continue
		}
		assert.True(t, ok, "should parse: "+tc.input)
		assert.InEpsilon(t, tc.expected, value, 1e-9, "value for "+tc.input)
	}
}

func TestNormalizePriceRejections(t *testing.T) {
	rejected := []string{
		"",
		"R$ 90",                               // below plausible bound
		"R$ 99.999,00",                        // above plausible bound
		"em até 10x de R$ 219,99",             // installment
		"R$ 2.199,90 sem juros",               // installment
		"$2,199.90 in 10x interest-free",      // installment (english)
		"12x of $183.33 installment",          // installment (english)
		"sem preço",                           // no number
	}

	for _, input := range rejected {
		_, ok := NormalizePrice(input)
		assert.False(t, ok, "should reject: "+input)
	}
}

func TestPickPricePrefersCashMarker(t *testing.T) {
	// A card showing a higher nominal price and a lower cash price
	price, ok := PickPrice([]string{
		"R$ 2.399,90",
		"R$ 2.099,00 à vista",
	})
	assert.True(t, ok)
	assert.InEpsilon(t, 2099.00, price, 1e-9)

	// English cash marker, installment text excluded entirely
	price, ok = PickPrice([]string{
		"$2,199.90 in 10x interest-free",
		"$2,099.00 cash",
	})
	assert.True(t, ok)
	assert.InEpsilon(t, 2099.00, price, 1e-9)
}

func TestPickPriceFallsBackToMinimum(t *testing.T) {
	price, ok := PickPrice([]string{
		"R$ 2.399,90",
		"R$ 2.199,90",
		"R$ 2.299,90",
	})
	assert.True(t, ok)
	assert.InEpsilon(t, 2199.90, price, 1e-9)
}

func TestPickPriceEmptyAndInvalid(t *testing.T) {
	_, ok := PickPrice(nil)
	assert.False(t, ok)

	_, ok = PickPrice([]string{"em até 12x de R$ 99,90", "sem juros"})
	assert.False(t, ok)
}
