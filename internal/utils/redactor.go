package utils

import "strings"

// SensitiveFields names the action-script value keys whose contents must
// never appear unredacted in logs.
var SensitiveFields = []string{
	"password",
	"token",
	"secret",
	"credential",
	"api_key",
}

// CredentialRedactor masks sensitive action-script field values before the
// login action writes them to the log.
type CredentialRedactor struct {
	sensitiveFields []string
}

func NewCredentialRedactor() *CredentialRedactor {
	return &CredentialRedactor{sensitiveFields: SensitiveFields}
}

func (r *CredentialRedactor) IsSensitiveField(name string) bool {
	nameLower := strings.ToLower(name)
	for _, keyword := range r.sensitiveFields {
		if strings.Contains(nameLower, keyword) {
			return true
		}
	}
	return false
}

// RedactValue masks value if name is a sensitive field, otherwise returns
// it unchanged.
func (r *CredentialRedactor) RedactValue(name, value string) string {
	if !r.IsSensitiveField(name) {
		return value
	}
	if len(value) > 4 {
		return value[:1] + "***"
	}
	return "***"
}

// RedactFields returns a copy of fields with sensitive values masked, for
// safe inclusion in a log event.
func (r *CredentialRedactor) RedactFields(fields map[string]string) map[string]string {
	result := make(map[string]string, len(fields))
	for name, value := range fields {
		result[name] = r.RedactValue(name, value)
	}
	return result
}
