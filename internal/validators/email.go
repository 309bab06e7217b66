package validators

import (
	"net"
	"strings"
)

// IsEmailDomainValid reports whether the address's domain can plausibly
// receive mail: an MX record, or failing that any A/AAAA record. It is a
// best-effort liveness check for registration, not RFC validation.
func IsEmailDomainValid(email string) bool {
	_, domain, found := strings.Cut(email, "@")
	if !found || domain == "" || strings.Contains(domain, "@") {
		return false
	}

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	ips, err := net.LookupIP(domain)
	return err == nil && len(ips) > 0
}
