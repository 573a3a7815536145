package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_ExactMatch(t *testing.T) {
	got := Name("ACMETECH", "ACMETECH", "ACME", "ACME")
	assert.Equal(t, 1.0, got)
}

func TestName_EmptyInputNeverFails(t *testing.T) {
	assert.Equal(t, 0.0, Name("", "", "", ""))
	assert.Equal(t, 0.0, Name("ACME", "", "ACME", ""))
}

func TestName_PartialOverlap(t *testing.T) {
	got := Name("ACMETECHNOLOGY", "ACMETECHNO", "ACMETECHNOLOGY", "ACMETECHNO")
	// edit 1-4/14 (x0.5) + no shared token (x0.3) + affix 10/14 (x0.2) = 0.5
	assert.Equal(t, 0.5, got)
	assert.Less(t, got, 1.0)
}

func TestAddress_ExactComponents(t *testing.T) {
	got := Address("上海市", "浦东新区", "张江镇", "高科技园区1号", "上海市", "浦东新区", "张江镇", "高科技园区1号")
	assert.Equal(t, 1.0, got)
}

func TestAddress_AllMismatch(t *testing.T) {
	got := Address("上海市", "浦东新区", "张江镇", "科技园1号", "北京市", "海淀区", "中关村街道", "大厦2号")
	assert.Equal(t, 0.0, got)
}

func TestAddress_ComponentsEmptyOnBothSidesDoNotInflateScore(t *testing.T) {
	// province and district absent on both sides; only city and detail agree.
	got := Address("", "浦东新区", "", "高科技园区1号", "", "浦东新区", "", "高科技园区1号")
	assert.Equal(t, 0.5, got) // 0.3 (city) + 0.2 (detail), province/district contribute 0
}

func TestPerson_ExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Person("ZHANGSAN", "ZHANGSAN"))
}

func TestPerson_ProperPrefix(t *testing.T) {
	assert.Equal(t, 0.5, Person("ZHANGSAN", "ZHANGSANFENG"))
}

func TestPerson_ShortStringsNeverHalfScore(t *testing.T) {
	assert.Equal(t, 0.0, Person("A", "AB"))
}

func TestPerson_Unrelated(t *testing.T) {
	assert.Equal(t, 0.0, Person("ZHANGSAN", "LISI"))
}

func TestPerson_EmptyInputNeverFails(t *testing.T) {
	assert.Equal(t, 0.0, Person("", ""))
}

func TestPhone_Match(t *testing.T) {
	assert.Equal(t, 1.0, Phone("13800000000", "13800000000"))
}

func TestPhone_Mismatch(t *testing.T) {
	assert.Equal(t, 0.0, Phone("13800000000", "13900000000"))
}

func TestPhone_EmptyInputNeverFails(t *testing.T) {
	assert.Equal(t, 0.0, Phone("", ""))
}

func TestNameCore_ExactAndEmpty(t *testing.T) {
	assert.Equal(t, 1.0, NameCore("ACME", "ACME"))
	assert.Equal(t, 0.0, NameCore("", "ACME"))
	assert.Less(t, NameCore("ACME", "ACMEX"), 1.0)
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.1235, Round4(0.12345))
	assert.Equal(t, 0.1234, Round4(0.12344))
}

func TestScoresAlwaysInUnitInterval(t *testing.T) {
	cases := []float64{
		Name("ACME", "ACMECORP", "ACME", "ACMECORP"),
		Address("A", "B", "C", "D", "E", "F", "G", "H"),
		Person("A", "AB"),
		Phone("123", "456"),
	}
	for _, v := range cases {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
