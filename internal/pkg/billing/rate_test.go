package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHouseType(t *testing.T) {
	tests := []struct {
		label string
		want  Category
		ok    bool
	}{
		{"60M2", Category60M2, true},
		{"type 60", Category60M2, true},
		{"  60 m2 ", Category60M2, true},
		{"TYPE60", Category60M2, true},
		{"72", Category72M2, true},
		{"Type 72", Category72M2, true},
		{"hook", CategoryHook, true},
		{"tipe hook", CategoryHook, true},
		{"garage", "", false},
		{"", "", false},
		{"   ", "", false},
		{"60M", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := NormalizeHouseType(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateTable_Amount_KeyVariants(t *testing.T) {
	t.Run("verbatim", func(t *testing.T) {
		amount, ok := RateTable{"60M2": 150000}.Amount(Category60M2)
		assert.True(t, ok)
		assert.Equal(t, int64(150000), amount)
	})

	t.Run("lowercase", func(t *testing.T) {
		amount, ok := RateTable{"hook": 90000}.Amount(CategoryHook)
		assert.True(t, ok)
		assert.Equal(t, int64(90000), amount)
	})

	t.Run("capitalized", func(t *testing.T) {
		amount, ok := RateTable{"Hook": 80000}.Amount(CategoryHook)
		assert.True(t, ok)
		assert.Equal(t, int64(80000), amount)
	})

	t.Run("verbatim wins over lowercase", func(t *testing.T) {
		amount, ok := RateTable{"HOOK": 1, "hook": 2}.Amount(CategoryHook)
		assert.True(t, ok)
		assert.Equal(t, int64(1), amount)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := RateTable{"72M2": 1}.Amount(Category60M2)
		assert.False(t, ok)
	})
}

func TestRateTable_Amount_OnlyPositiveIntegers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
		ok    bool
	}{
		{"int", 100000, 100000, true},
		{"int64", int64(5), 5, true},
		{"integral float from JSON", float64(120000), 120000, true},
		{"json number", json.Number("130000"), 130000, true},
		{"fractional float", 1.5, 0, false},
		{"zero", 0, 0, false},
		{"negative", -10, 0, false},
		{"string", "100000", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"fractional json number", json.Number("1.5"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RateTable{"60M2": tt.value}.Amount(Category60M2)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	rates := RateTable{"60M2": 150000}

	c, amount, ok := Resolve("type 60", rates)
	assert.True(t, ok)
	assert.Equal(t, Category60M2, c)
	assert.Equal(t, int64(150000), amount)

	_, _, ok = Resolve("garage", rates)
	assert.False(t, ok)

	// 类型可识别但费率缺失
	_, _, ok = Resolve("HOOK", rates)
	assert.False(t, ok)
}

func TestResolve_DecodedJSON(t *testing.T) {
	var rates RateTable
	err := json.Unmarshal([]byte(`{"60m2": 100000, "72M2": "abc", "Hook": 0}`), &rates)
	assert.NoError(t, err)

	_, amount, ok := Resolve("60", rates)
	assert.True(t, ok)
	assert.Equal(t, int64(100000), amount)

	_, _, ok = Resolve("72", rates)
	assert.False(t, ok)

	_, _, ok = Resolve("hook", rates)
	assert.False(t, ok)
}

func TestFromInts(t *testing.T) {
	rates := FromInts(map[string]int{"60m2": 100000})
	amount, ok := rates.Amount(Category60M2)
	assert.True(t, ok)
	assert.Equal(t, int64(100000), amount)
}

func TestKnownCategories(t *testing.T) {
	assert.ElementsMatch(t, []Category{Category60M2, Category72M2, CategoryHook}, KnownCategories())
}
