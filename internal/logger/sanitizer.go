package logger

import (
	"fmt"
	"strings"
)

// Sanitizer masks values of sensitive keys in logging arguments so
// passphrases never end up in a log file. Only values under sensitive
// keys are masked; secrets embedded in unrelated values are the
// caller's responsibility.
type Sanitizer struct {
	sensitive []string
}

// NewSanitizer creates a sanitizer with the default key list
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		sensitive: []string{
			"password", "passphrase", "passwd",
			"token", "secret", "key_ref", "keyref",
			"credential", "auth",
		},
	}
}

// SanitizeArgs masks values whose keys look sensitive
func (s *Sanitizer) SanitizeArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}

	result := make([]any, len(args))
	copy(result, args)

	for i := 0; i < len(result)-1; i += 2 {
		key, ok := result[i].(string)
		if !ok || !s.isSensitiveKey(key) {
			continue
		}

		switch v := result[i+1].(type) {
		case string:
			result[i+1] = maskValue(v)
		case error:
			result[i+1] = maskValue(v.Error())
		}
	}

	return result
}

// isSensitiveKey reports whether the key name looks sensitive
func (s *Sanitizer) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sk := range s.sensitive {
		if strings.Contains(lower, sk) {
			return true
		}
	}
	return false
}

// maskValue masks a value, keeping the first and last character of
// longer values for recognizability
func maskValue(value string) string {
	if len(value) <= 2 {
		return "***"
	}
	if len(value) <= 8 {
		return fmt.Sprintf("%c***", value[0])
	}
	return fmt.Sprintf("%c***%c", value[0], value[len(value)-1])
}
