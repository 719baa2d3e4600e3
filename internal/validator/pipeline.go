package validator

import (
	"context"
	"log/slog"
	"time"

	"github.com/vnykmshr/mailsift/internal/domain"
	"github.com/vnykmshr/mailsift/internal/extractor"
)

// modeStages maps a validation mode to the ordered stage subset it runs.
var modeStages = map[domain.ValidationMode][]domain.ValidationStage{
	domain.ModeFormatOnly: {domain.StageFormat},
	domain.ModeQuick:      {domain.StageFormat, domain.StageDNS},
	domain.ModeComplete:   {domain.StageFormat, domain.StageBlacklist, domain.StageDNS, domain.StageSMTP},
}

// failStatus maps the first failing stage to the verdict status.
var failStatus = map[domain.ValidationStage]domain.FinalStatus{
	domain.StageFormat:    domain.StatusInvalidFormat,
	domain.StageBlacklist: domain.StatusBlacklisted,
	domain.StageDNS:       domain.StatusNoMailServer,
	domain.StageSMTP:      domain.StatusMailboxUnreachable,
}

// confidenceWeights contribute per passed stage. An address passing all
// four stages scores 1.0.
var confidenceWeights = map[domain.ValidationStage]float64{
	domain.StageFormat:    0.2,
	domain.StageBlacklist: 0.1,
	domain.StageDNS:       0.3,
	domain.StageSMTP:      0.4,
}

// mailHostResolver and mailboxProber let tests substitute the network
// stages with scripted outcomes.
type mailHostResolver interface {
	LookupMailHosts(ctx context.Context, domainName string) ([]string, error)
}

type mailboxProber interface {
	Probe(ctx context.Context, address string, hosts []string) ProbeOutcome
}

// stageOutcome is the normalized result one stage hands the pipeline.
type stageOutcome struct {
	passed   bool
	tempfail bool
	detail   string
}

// Pipeline validates addresses through the ordered stage sequence the
// selected mode prescribes, stopping at the first definitive failure.
type Pipeline struct {
	blacklist   *Blacklist
	resolver    mailHostResolver
	prober      mailboxProber
	smtpEnabled bool
	logger      *slog.Logger
}

// NewPipeline wires the full stage set from configuration.
func NewPipeline(cfg domain.PipelineConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		blacklist:   NewBlacklist(),
		resolver:    NewResolver(cfg.DNSTimeout, cfg.DNSResolver),
		prober:      NewProber(cfg),
		smtpEnabled: cfg.SMTPEnabled,
		logger:      logger,
	}
}

// Validate runs the stage sequence for the given mode and returns the
// aggregate verdict. The first failing stage determines the final status;
// later stages never run after a failure.
func (p *Pipeline) Validate(ctx context.Context, address string, mode domain.ValidationMode) domain.Verdict {
	verdict := domain.Verdict{Address: address}
	domainName := domain.AddressDomain(address)

	// Hosts flow from the DNS stage to the SMTP stage within one address.
	var mailHosts []string

	for _, stage := range modeStages[mode] {
		if stage == domain.StageSMTP && !p.smtpEnabled {
			verdict.Stages = append(verdict.Stages, domain.StageResult{
				Stage:   domain.StageSMTP,
				Skipped: true,
				Detail:  "smtp probing disabled",
			})
			continue
		}

		start := time.Now()
		outcome := p.runStage(ctx, stage, address, domainName, &mailHosts)
		result := domain.StageResult{
			Stage:      stage,
			Passed:     outcome.passed,
			Detail:     outcome.detail,
			DurationMs: time.Since(start).Milliseconds(),
		}
		verdict.Stages = append(verdict.Stages, result)

		if outcome.tempfail {
			verdict.FinalStatus = domain.StatusUnknown
			verdict.Confidence = p.confidence(verdict)
			p.logger.Debug("validation inconclusive",
				"address", address, "stage", stage, "detail", outcome.detail)
			return verdict
		}
		if !outcome.passed {
			verdict.FinalStatus = failStatus[stage]
			verdict.Confidence = p.confidence(verdict)
			p.logger.Debug("validation failed",
				"address", address, "stage", stage, "detail", outcome.detail)
			return verdict
		}
	}

	verdict.FinalStatus = domain.StatusValid
	verdict.Confidence = p.confidence(verdict)
	return verdict
}

func (p *Pipeline) runStage(ctx context.Context, stage domain.ValidationStage, address, domainName string, mailHosts *[]string) stageOutcome {
	switch stage {
	case domain.StageFormat:
		if !extractor.ValidAddress(address) {
			return stageOutcome{detail: "address does not match email grammar"}
		}
		return stageOutcome{passed: true}

	case domain.StageBlacklist:
		if blocked, reason := p.blacklist.Lookup(domainName); blocked {
			return stageOutcome{detail: reason}
		}
		return stageOutcome{passed: true}

	case domain.StageDNS:
		hosts, err := p.resolver.LookupMailHosts(ctx, domainName)
		if err != nil {
			return stageOutcome{detail: err.Error()}
		}
		*mailHosts = hosts
		return stageOutcome{passed: true}

	case domain.StageSMTP:
		outcome := p.prober.Probe(ctx, address, *mailHosts)
		return stageOutcome{
			passed:   outcome.Passed,
			tempfail: outcome.TempFail,
			detail:   outcome.Detail,
		}
	}
	return stageOutcome{detail: "unknown stage"}
}

// confidence scores the verdict from which stages ran and passed.
// Skipped stages contribute nothing.
func (p *Pipeline) confidence(v domain.Verdict) float64 {
	var score float64
	for _, s := range v.Stages {
		if s.Passed && !s.Skipped {
			score += confidenceWeights[s.Stage]
		}
	}
	return score
}
