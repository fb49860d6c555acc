package workers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riverqueue/river"

	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/internal/sourcemap"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

// AnalystWorker implements the holistic analyst verdict worker (§4.6.7).
// It is the pipeline's last stage: terminal, no further chaining.
type AnalystWorker struct {
	river.WorkerDefaults[AnalystArgs]
	Deps *Deps
}

func (w *AnalystWorker) Work(ctx context.Context, job *river.Job[AnalystArgs]) error {
	return runStage(ctx, w.Deps, models.StageAnalyst, queue.Analyst, job.Args.JobPayload, w.execute, w.chain)
}

func (w *AnalystWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	sm := sourcemap.Build(r)
	prompt := buildAnalystPrompt(r, sm)

	timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.LLMText)
	defer cancel()

	res := w.Deps.Analyst.Decide(timeoutCtx, prompt)
	if !res.Ok {
		applyFallbackVerdict(r)
		r.AnalystCriticalAlerts = append(r.AnalystCriticalAlerts, "LLM output unparseable")
		return success(map[string]any{"analystStatus": r.AnalystStatus, "fallback": true})
	}

	v := res.Value
	r.AnalystStatus = v.Status
	r.AnalystConfidence = int(v.ConfidenceOverall)
	r.AnalystSummary = v.ExecutiveSummary
	r.AnalystCriticalAlerts = v.CriticalAlerts
	r.AnalystSecondaryAlerts = v.SecondaryAlerts
	r.AnalystRecommendations = v.Recommendations
	r.AnalystDivergences = v.DivergencesFound
	if v.TypologyCode != "" {
		r.TypologyCode = v.TypologyCode
		r.TypologyName = v.TypologyName
		r.TypologyConfidence = int(v.TypologyConfidence)
	}

	if r.CPFIsPartner {
		r.AnalystSecondaryAlerts = append(r.AnalystSecondaryAlerts, fmt.Sprintf("CPF is a registered partner of %s", r.CPFPartnerRelation.CompanyName))
	} else if r.DocumentKind == models.DocumentCPF {
		r.AnalystSecondaryAlerts = append(r.AnalystSecondaryAlerts, "CPF not found in any partner list")
	}

	return success(map[string]any{"analystStatus": r.AnalystStatus, "analystConfidence": r.AnalystConfidence})
}

// applyFallbackVerdict implements the decision rubric of §4.6.7 as a
// safety net when the LLM's JSON cannot be parsed or the call itself
// fails, using sourceScore := confidenceOverall already computed by the
// analysis stage in lieu of a fresh LLM judgement.
func applyFallbackVerdict(r *models.Record) {
	sourceScore := r.ConfidenceOverall
	hasCritical := r.RegistryStatus != "" && r.RegistryStatus != "ACTIVE"

	switch {
	case hasCritical || sourceScore < 40:
		r.AnalystStatus = "REJECTED"
	case sourceScore < 60:
		r.AnalystStatus = "REQUIRES_REVIEW"
	case sourceScore < 80:
		r.AnalystStatus = "APPROVED_WITH_CAVEATS"
	default:
		r.AnalystStatus = "APPROVED"
	}
	r.AnalystConfidence = 40
	r.AnalystSummary = "Automated fallback verdict: reasoning model output could not be parsed."
}

func buildAnalystPrompt(r *models.Record, sm map[string]sourcemap.FieldOrigin) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Anchor document: %s (%s)\n", r.Document, r.DocumentKind)
	fmt.Fprintf(&b, "Untrusted raw input: name=%q address=%q city=%q state=%q\n",
		r.NameRaw, r.AddressRaw, r.CityRaw, r.StateRaw)

	b.WriteString("\nPer-field source map:\n")
	fields := make([]string, 0, len(sm))
	for k := range sm {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		fo := sm[k]
		line := fmt.Sprintf("- %s = %v (source=%s, confidence=%d, validated=%t", fo.Field, fo.Value, fo.Source, fo.Confidence, fo.Validated)
		if fo.Divergence != "" {
			line += fmt.Sprintf(", divergence=%s", fo.Divergence)
		}
		line += ")\n"
		b.WriteString(line)
	}

	b.WriteString("\nValidated data:\n")
	fmt.Fprintf(&b, "- legalName=%q tradeName=%q registryStatus=%q\n", r.LegalName, r.TradeName, r.RegistryStatus)
	fmt.Fprintf(&b, "- addressNormalized=%q lat=%.6f lng=%.6f geoWithinState=%t\n", r.AddressNormalized, r.Lat, r.Lng, r.GeoWithinState)
	fmt.Fprintf(&b, "- placeId=%q rating=%.1f reviewCount=%d potentialScore=%d (%s)\n", r.PlaceID, r.Rating, r.ReviewCount, r.PotentialScore, r.PotentialCategory)

	b.WriteString("\nExisting alerts/divergences:\n")
	fmt.Fprintf(&b, "- confidenceOverall=%d confidenceLevel=%s duplicateAlert=%t duplicateCount=%d\n", r.ConfidenceOverall, r.ConfidenceLevel, r.DuplicateAlert, r.DuplicateCount)
	if len(r.Alerts) > 0 {
		fmt.Fprintf(&b, "- alerts: %s\n", strings.Join(r.Alerts, "; "))
	}
	if len(r.NormalizationDivergences) > 0 {
		fmt.Fprintf(&b, "- normalizationDivergences: %s\n", strings.Join(r.NormalizationDivergences, "; "))
	}
	if r.DocumentKind == models.DocumentCPF {
		fmt.Fprintf(&b, "- cpfIsPartner=%t\n", r.CPFIsPartner)
	}

	return b.String()
}

func (w *AnalystWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {}
