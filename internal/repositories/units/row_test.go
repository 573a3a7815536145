package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondaryRow_ToUnit(t *testing.T) {
	row := secondaryRow{
		ID: "S1", Name: "FOO TRADING", CreditCode: "91000000MA1ABCDE0X",
		Address: "上海市浦东新区1号", LegalRepresentative: "ZHANG SAN",
		SafetyManager: "LI SI", ContactPhone: "13800000000", BuildingID: "B1",
	}
	u := row.toUnit()
	assert.Equal(t, "S1", u.ID)
	assert.Equal(t, "FOO TRADING", u.Name)
	assert.Equal(t, "91000000MA1ABCDE0X", u.CreditCode)
	assert.Equal(t, "B1", u.BuildingID)
}

func TestSecondaryRow_ToNormalized(t *testing.T) {
	row := secondaryRow{
		NameCanonical: "FOO TRADING", NameCore: "FOO",
		AddressKeywords:     []string{"浦东新区"},
		CreditCodeCanonical: "91000000MA1ABCDE0X",
		PhoneDigits:         "13800000000",
	}
	n := row.toNormalized()
	assert.Equal(t, "FOO TRADING", n.NameCanonical)
	assert.Equal(t, "FOO", n.NameCore)
	assert.Equal(t, []string{"浦东新区"}, n.AddressKeywords)
	assert.Equal(t, "91000000MA1ABCDE0X", n.CreditCodeCanon)
}

func TestPrimaryRow_ToUnit(t *testing.T) {
	row := primaryRow{ID: "P1", Name: "ACME", CreditCode: "X", Address: "Y", BuildingID: "B9"}
	u := row.toUnit()
	assert.Equal(t, "P1", u.ID)
	assert.Equal(t, "ACME", u.Name)
	assert.Equal(t, "B9", u.BuildingID)
}
