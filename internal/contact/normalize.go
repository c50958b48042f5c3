package contact

import "strings"

// NormalizePhone converts a US number to E.164. Ten digits gain a +1 prefix,
// eleven digits starting with 1 gain a +. Any other non-empty digit string is
// returned as bare digits, unvalidated. Input with no digits yields nil.
func NormalizePhone(raw string) *string {
	digits := digitsOnly(raw)
	var out string
	switch {
	case digits == "":
		return nil
	case len(digits) == 10:
		out = "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		out = "+" + digits
	default:
		out = digits
	}
	return &out
}

// NormalizePhoneString is NormalizePhone with "" for no number.
func NormalizePhoneString(raw string) string {
	if p := NormalizePhone(raw); p != nil {
		return *p
	}
	return ""
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateEmail is a permissive syntax check: one @, non-empty local part,
// and a domain containing a dot. Deliverability is not checked.
func ValidateEmail(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Count(s, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(s, "@")
	if local == "" || domain == "" {
		return false
	}
	return strings.Contains(domain, ".")
}
