// Package cnnum converts Chinese numerals (simplified and traditional) to
// integers. Season suffixes in program titles use both forms, e.g. "第二季"
// and "第貳季".
package cnnum

import (
	"regexp"
	"strconv"
)

var digits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
	'壹': 1, '貳': 2, '贰': 2, '參': 3, '叁': 3, '肆': 4,
	'伍': 5, '陸': 6, '陆': 6, '柒': 7, '捌': 8, '玖': 9,
}

var units = map[rune]int{
	'十': 10, '百': 100, '千': 1000,
	'拾': 10, '佰': 100, '仟': 1000,
}

var numeralPattern = regexp.MustCompile(`[零一二两三四五六七八九十百千壹貳贰參叁肆伍陸陆柒捌玖拾佰仟]+`)

// Parse converts a numeral string to an integer. Arabic digits pass through;
// mixed or empty input returns 0.
func Parse(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	result := 0
	current := 0
	lastUnit := 1
	for _, r := range s {
		if d, ok := digits[r]; ok {
			current = d
			continue
		}
		unit, ok := units[r]
		if !ok {
			continue
		}
		if current == 0 {
			current = 1
		}
		if unit >= lastUnit {
			result = current * unit
		} else {
			result += current * unit
		}
		lastUnit = unit
		current = 0
	}
	return result + current
}

// Find extracts the first numeral run (Chinese characters only) from s, or
// "" when none is present.
func Find(s string) string {
	return numeralPattern.FindString(s)
}
