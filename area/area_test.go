package area

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryCodeHasExternalID(t *testing.T) {
	for _, tx := range Taxonomies {
		codes := Codes(tx)
		require.NotEmpty(t, codes, tx)
		for _, code := range codes {
			rec, err := Lookup(tx, code)
			require.NoError(t, err)
			assert.NotEmpty(t, rec.ID, "%s %s", tx, code)
			assert.Equal(t, code, rec.Code)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		taxonomy Taxonomy
		code     string
		id       string
		market   string
		freq     string
	}{
		{
			name:     "control area",
			taxonomy: ControlArea,
			code:     "AT",
			id:       "CTY|10YAT-APG------L!CTA|10YAT-APG------L",
		},
		{
			name:     "bidding zone with override",
			taxonomy: BiddingZone,
			code:     "IE(SEM)",
			id:       "CTY|GB!BZN|10Y1001A1001A59C",
			market:   "DAHH",
			freq:     "30m",
		},
		{
			name:     "market balancing area",
			taxonomy: MarketBalancingArea,
			code:     "SE3",
			id:       "CTY|10YSE-1--------K!MBA|10Y1001A1001A46L",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Lookup(tt.taxonomy, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.id, rec.ID)
			assert.Equal(t, tt.market, rec.Market)
			assert.Equal(t, tt.freq, rec.Frequency)
		})
	}
}

func TestLookupUnknownListsSortedCodes(t *testing.T) {
	for _, tx := range Taxonomies {
		_, err := Lookup(tx, "XX")

		var unknown *UnknownAreaError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, tx, unknown.Taxonomy)
		assert.Equal(t, "XX", unknown.Code)
		assert.True(t, slices.IsSorted(unknown.Valid))
		assert.Equal(t, Codes(tx), unknown.Valid)
		assert.Contains(t, err.Error(), unknown.Valid[0])
	}
}

func TestLoadRejectsMissingID(t *testing.T) {
	_, err := Load([]byte("control_area:\n  XX:\n    country: Nowhere\n"))
	assert.Error(t, err)
}

func TestParseTaxonomy(t *testing.T) {
	tx, err := ParseTaxonomy("BZN")
	require.NoError(t, err)
	assert.Equal(t, BiddingZone, tx)

	tx, err = ParseTaxonomy("market_balancing_area")
	require.NoError(t, err)
	assert.Equal(t, "MBA", tx.AreaType())

	_, err = ParseTaxonomy("country")
	assert.Error(t, err)
}
