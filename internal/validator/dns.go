package validator

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// dnsOutcome is a cached per-domain lookup result. Failures are cached
// too so a batch full of addresses on one dead domain queries it once.
type dnsOutcome struct {
	hosts []string
	err   error
}

// Resolver answers whether a domain can receive mail: MX targets in
// preference order, falling back to the domain itself when only A/AAAA
// records exist. Results are cached for the session. Safe for concurrent
// use.
type Resolver struct {
	server   string
	exchange func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error)

	mu    sync.Mutex
	cache map[string]dnsOutcome
}

// NewResolver creates a resolver that queries the given server
// ("host:port") with a bounded per-query timeout.
func NewResolver(timeout time.Duration, server string) *Resolver {
	client := &dns.Client{Timeout: timeout}
	return &Resolver{
		server: server,
		exchange: func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, error) {
			in, _, err := client.ExchangeContext(ctx, m, server)
			return in, err
		},
		cache: make(map[string]dnsOutcome),
	}
}

// LookupMailHosts resolves the mail-capable hosts for a domain. The error
// carries the diagnostic for a failed DNS stage; it is data, not a
// pipeline-fatal condition.
func (r *Resolver) LookupMailHosts(ctx context.Context, domainName string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(domainName))

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached.hosts, cached.err
	}

	outcome := r.lookup(ctx, key)

	r.mu.Lock()
	r.cache[key] = outcome
	r.mu.Unlock()

	return outcome.hosts, outcome.err
}

func (r *Resolver) lookup(ctx context.Context, domainName string) dnsOutcome {
	hosts, mxErr := r.lookupMX(ctx, domainName)
	if mxErr == nil && len(hosts) > 0 {
		return dnsOutcome{hosts: hosts}
	}
	if mxErr != nil && errors.Is(mxErr, errNXDomain) {
		return dnsOutcome{err: errors.New("domain does not exist")}
	}

	// No MX records: a host with only A/AAAA records may still accept
	// mail directly.
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		if r.hasRecord(ctx, domainName, qtype) {
			return dnsOutcome{hosts: []string{domainName}}
		}
	}

	if mxErr != nil {
		return dnsOutcome{err: mxErr}
	}
	return dnsOutcome{err: errors.New("no MX, A or AAAA records")}
}

var errNXDomain = errors.New("nxdomain")

func (r *Resolver) lookupMX(ctx context.Context, domainName string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domainName), dns.TypeMX)

	in, err := r.exchange(ctx, m, r.server)
	if err != nil {
		return nil, errors.New("dns lookup failed: " + err.Error())
	}
	if in.Rcode == dns.RcodeNameError {
		return nil, errNXDomain
	}

	type mx struct {
		pref uint16
		host string
	}
	var records []mx
	for _, ans := range in.Answer {
		if rr, ok := ans.(*dns.MX); ok {
			records = append(records, mx{pref: rr.Preference, host: strings.TrimSuffix(rr.Mx, ".")})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].pref < records[j].pref })

	hosts := make([]string, 0, len(records))
	for _, rec := range records {
		hosts = append(hosts, rec.host)
	}
	return hosts, nil
}

func (r *Resolver) hasRecord(ctx context.Context, domainName string, qtype uint16) bool {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domainName), qtype)

	in, err := r.exchange(ctx, m, r.server)
	if err != nil || in.Rcode != dns.RcodeSuccess {
		return false
	}
	for _, ans := range in.Answer {
		switch ans.(type) {
		case *dns.A, *dns.AAAA:
			return true
		}
	}
	return false
}
