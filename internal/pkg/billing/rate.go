package billing

import (
	"encoding/json"
	"math"
	"strings"
)

// Category 规范化后的房屋类型，也是费率表的 key
type Category string

const (
	Category60M2 Category = "60M2"
	Category72M2 Category = "72M2"
	CategoryHook Category = "HOOK"
)

// 每个规范类型对应的同义写法（比较前已转大写并去除首尾空白）
var categorySynonyms = []struct {
	category Category
	labels   []string
}{
	{Category60M2, []string{"60M2", "60", "60 M2", "TYPE 60", "TYPE60"}},
	{Category72M2, []string{"72M2", "72", "72 M2", "TYPE 72", "TYPE72"}},
	{CategoryHook, []string{"HOOK", "TYPE HOOK", "TIPE HOOK"}},
}

// KnownCategories 返回已知的类型集合
func KnownCategories() []Category {
	out := make([]Category, 0, len(categorySynonyms))
	for _, s := range categorySynonyms {
		out = append(out, s.category)
	}
	return out
}

// NormalizeHouseType 将住户填写的房屋类型映射为规范类型，无法识别时返回 false
func NormalizeHouseType(label string) (Category, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	if normalized == "" {
		return "", false
	}
	for _, s := range categorySynonyms {
		for _, l := range s.labels {
			if normalized == l {
				return s.category, true
			}
		}
	}
	return "", false
}

// RateTable 管理员提交的费率表，key 大小写不固定，值可能来自 JSON
type RateTable map[string]any

// Amount 按 原样 / 小写 / 首字母大写 的顺序查找金额，第一个存在的 key 生效。
// 只接受正整数，其余情况视为未配置。
func (r RateTable) Amount(c Category) (int64, bool) {
	key := string(c)
	for _, k := range []string{key, strings.ToLower(key), capitalize(key)} {
		v, ok := r[k]
		if !ok {
			continue
		}
		return positiveInt(v)
	}
	return 0, false
}

// Resolve 组合类型识别与金额查找；返回 false 表示跳过该住户
func Resolve(label string, rates RateTable) (Category, int64, bool) {
	c, ok := NormalizeHouseType(label)
	if !ok {
		return "", 0, false
	}
	amount, ok := rates.Amount(c)
	if !ok {
		return "", 0, false
	}
	return c, amount, true
}

// FromInts 由配置中的整数费率构造费率表
func FromInts(m map[string]int) RateTable {
	out := make(RateTable, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func positiveInt(v any) (int64, bool) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		// JSON 数字默认解码为 float64，只接受整数值
		if x != math.Trunc(x) || x > math.MaxInt64 {
			return 0, false
		}
		n = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	default:
		return 0, false
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}
