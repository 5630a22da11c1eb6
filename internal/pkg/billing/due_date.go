package billing

import (
	"regexp"
	"strconv"
	"time"
)

var monthPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// fallbackDueDays 月份格式错误时的兜底期限
const fallbackDueDays = 30

// ParseMonth 解析 YYYY-MM
func ParseMonth(month string) (int, time.Month, bool) {
	m := monthPattern.FindStringSubmatch(month)
	if m == nil {
		return 0, 0, false
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	if year < 1 || mon < 1 || mon > 12 {
		return 0, 0, false
	}
	return year, time.Month(mon), true
}

// ValidMonth 请求参数校验用
func ValidMonth(month string) bool {
	_, _, ok := ParseMonth(month)
	return ok
}

// DueDate 账单到期时间：账期最后一天 23:59:59（参考时区）。
// 月份无法解析时返回 now 之后 30 天，不中断生成流程。
func DueDate(month string, now time.Time) time.Time {
	loc := now.Location()
	year, mon, ok := ParseMonth(month)
	if !ok {
		return now.AddDate(0, 0, fallbackDueDays)
	}
	// 下个月第 0 天即本月最后一天
	lastDay := time.Date(year, mon+1, 0, 0, 0, 0, 0, loc).Day()
	return time.Date(year, mon, lastDay, 23, 59, 59, 0, loc)
}

// MonthOf 返回 t 所在账期
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
