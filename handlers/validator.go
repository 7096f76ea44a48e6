package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// validator собирает ошибки полей, чтобы вернуть их все одним ответом 422.
type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{errors: make(map[string]string)}
}

func (v *validator) valid() bool {
	return len(v.errors) == 0
}

// check records message for key unless ok. The first error for a key wins.
func (v *validator) check(ok bool, key, message string) {
	if ok {
		return
	}
	if _, exists := v.errors[key]; !exists {
		v.errors[key] = message
	}
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= min && n <= max
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}
