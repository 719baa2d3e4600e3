package validator

import "strings"

// disposableDomains are throwaway email providers. Mail sent to these is
// effectively undeliverable for outreach purposes.
var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"temp-mail.org":     {},
	"throwaway.email":   {},
	"getnada.com":       {},
	"maildrop.cc":       {},
	"tempmail.email":    {},
	"yopmail.com":       {},
	"dispostable.com":   {},
	"fakeinbox.com":     {},
	"spambox.us":        {},
}

// invalidDomains are documentation and test domains that never host a
// real mailbox.
var invalidDomains = map[string]struct{}{
	"example.com":    {},
	"test.com":       {},
	"domain.com":     {},
	"yoursite.com":   {},
	"yourdomain.com": {},
	"localhost":      {},
}

// Blacklist answers whether a domain is a known disposable or placeholder
// mail domain.
type Blacklist struct {
	disposable map[string]struct{}
	invalid    map[string]struct{}
}

// NewBlacklist creates a blacklist with the maintained default sets.
func NewBlacklist() *Blacklist {
	return &Blacklist{
		disposable: disposableDomains,
		invalid:    invalidDomains,
	}
}

// Lookup checks a domain against the blacklist. The returned reason
// distinguishes disposable providers from placeholder domains.
func (b *Blacklist) Lookup(domainName string) (blocked bool, reason string) {
	d := strings.ToLower(strings.TrimSpace(domainName))
	if _, ok := b.disposable[d]; ok {
		return true, "disposable email provider"
	}
	if _, ok := b.invalid[d]; ok {
		return true, "placeholder or test domain"
	}
	return false, ""
}
