package validator

import (
	"context"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
)

// ProbeOutcome is the result of an SMTP handshake probe. TempFail marks
// temporary 4xx replies (greylisting, busy server) that map to an
// Unknown verdict rather than a hard rejection.
type ProbeOutcome struct {
	Passed   bool
	TempFail bool
	Code     int
	Detail   string
}

// Prober opens bounded-timeout connections to resolved mail hosts and
// issues HELO / MAIL FROM / RCPT TO, inspecting the reply code without
// ever sending DATA.
type Prober struct {
	timeout time.Duration
	port    int
	helo    string
	from    string
}

// NewProber creates a prober from the pipeline configuration.
func NewProber(cfg domain.PipelineConfig) *Prober {
	return &Prober{
		timeout: cfg.SMTPTimeout,
		port:    cfg.SMTPPort,
		helo:    cfg.SMTPHeloDomain,
		from:    cfg.SMTPProbeFrom,
	}
}

// Probe tries the given mail hosts in priority order and returns the
// first definitive answer (RCPT accepted or hard-rejected). Connection
// failures and temporary replies fall through to the next host; if no
// host answers definitively the last outcome is returned.
func (p *Prober) Probe(ctx context.Context, address string, hosts []string) ProbeOutcome {
	last := ProbeOutcome{Detail: "no mail hosts to probe"}

	for _, host := range hosts {
		outcome, definitive := p.probeHost(ctx, address, host)
		if definitive {
			return outcome
		}
		last = outcome
	}
	return last
}

func (p *Prober) probeHost(ctx context.Context, address, host string) (ProbeOutcome, bool) {
	addr := net.JoinHostPort(host, strconv.Itoa(p.port))

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ProbeOutcome{Detail: fmt.Sprintf("connect %s: %v", host, err)}, false
	}
	defer func() {
		_ = conn.Close()
	}()
	_ = conn.SetDeadline(time.Now().Add(p.timeout))

	tp := textproto.NewConn(conn)

	code, msg, err := tp.ReadResponse(0)
	if err != nil {
		return ProbeOutcome{Detail: fmt.Sprintf("greeting from %s: %v", host, err)}, false
	}
	if code != 220 {
		return ProbeOutcome{Code: code, Detail: fmt.Sprintf("greeting %d from %s: %s", code, host, msg)}, false
	}

	if code, msg, err = p.command(tp, "HELO %s", p.helo); err != nil || code != 250 {
		return ProbeOutcome{Code: code, Detail: fmt.Sprintf("HELO rejected by %s: %d %s", host, code, msg)}, false
	}
	if code, msg, err = p.command(tp, "MAIL FROM:<%s>", p.from); err != nil || code != 250 {
		return ProbeOutcome{Code: code, Detail: fmt.Sprintf("MAIL FROM rejected by %s: %d %s", host, code, msg)}, false
	}

	code, msg, err = p.command(tp, "RCPT TO:<%s>", address)
	// Disconnect politely; the reply no longer matters.
	_ = tp.PrintfLine("QUIT")

	if err != nil {
		return ProbeOutcome{Detail: fmt.Sprintf("RCPT TO via %s: %v", host, err)}, false
	}

	switch {
	case code >= 200 && code < 300:
		return ProbeOutcome{Passed: true, Code: code}, true
	case code >= 500:
		return ProbeOutcome{Code: code, Detail: fmt.Sprintf("mailbox rejected: %d %s", code, msg)}, true
	case code >= 400:
		return ProbeOutcome{TempFail: true, Code: code, Detail: fmt.Sprintf("temporary refusal: %d %s", code, msg)}, false
	default:
		return ProbeOutcome{Code: code, Detail: fmt.Sprintf("unexpected reply: %d %s", code, msg)}, false
	}
}

func (p *Prober) command(tp *textproto.Conn, format string, args ...any) (int, string, error) {
	if err := tp.PrintfLine(format, args...); err != nil {
		return 0, "", err
	}
	return tp.ReadResponse(0)
}
