package configurator

import (
	"regexp"
	"strings"
)

// цифра 1-9, ещё три цифры, необязательный пробел, две буквы (1234 AB)
var postcodeRe = regexp.MustCompile(`^[1-9][0-9]{3} ?[A-Za-z]{2}$`)

// ValidPostcode проверяет формат индекса.
func ValidPostcode(s string) bool {
	return postcodeRe.MatchString(strings.TrimSpace(s))
}

// NormalizePostcode приводит валидный индекс к виду 1234AB,
// невалидный возвращает как есть (без крайних пробелов).
func NormalizePostcode(raw string) string {
	s := strings.TrimSpace(raw)
	if !postcodeRe.MatchString(s) {
		return s
	}
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}
