package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameCanonical_Idempotent(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	tests := []string{
		"Foo Trading Co., Ltd.",
		"上海宏达（测试）贸易有限公司",
		"  spaced   out  ",
		"",
	}
	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			once := n.NameCanonical(tt)
			twice := n.NameCanonical(once)
			assert.Equal(t, once, twice, "NameCanonical must be idempotent")
		})
	}
}

func TestNameCanonical_WidthFoldAndUppercase(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	got := n.NameCanonical("ｆｏｏ company")
	assert.Equal(t, "FOOCOMPANY", got)
}

func TestNameCanonical_StripsBracketAnnotation(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	got := n.NameCanonical("Acme（Shanghai）Technology")
	assert.Equal(t, "ACMETECHNOLOGY", got)
}

func TestNameCore_StripsPrefixAndSuffix(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	canonical := n.NameCanonical("上海ACME科技有限公司")
	core := n.NameCore(canonical)
	assert.NotContains(t, core, "有限公司")
}

func TestNameSlices(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	slices := n.NameSlices("ACMETECH")
	require.NotEmpty(t, slices)
	assert.Equal(t, "AC", slices[0])
}

func TestEmptyInputNeverFails(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	assert.Equal(t, "", n.NameCanonical(""))
	assert.Empty(t, n.NameSlices(""))
	canon, tokens, _, _, _, _, keywords := n.AddressNormalize("")
	assert.Equal(t, "", canon)
	assert.Empty(t, tokens)
	assert.Empty(t, keywords)
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+86 138-0000-0000", "13800000000"},
		{"8613800000000", "13800000000"},
		{"13800000000", "13800000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phone(tt.in))
	}
}

func TestCreditCode(t *testing.T) {
	got := CreditCode("91000000ma1abcde0x")
	assert.Equal(t, "91000000MA1ABCDE0X", got)
}

func TestAddressNormalize_Keywords(t *testing.T) {
	n := NewNormalizer(DefaultConfig())
	_, _, _, _, _, _, keywords := n.AddressNormalize("上海市浦东新区张江高科技园区")
	assert.NotEmpty(t, keywords)
}
