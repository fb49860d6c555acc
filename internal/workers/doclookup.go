package workers

import (
	"context"
	"strings"
	"time"

	"github.com/riverqueue/river"

	"github.com/catalogforge/enrichment-engine/internal/crossvalidate"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

const chainDelayAfterDocLookup = 500 * time.Millisecond

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DetectDocumentKind classifies a tax document by digit count after
// stripping non-digits (§4.6.1).
func DetectDocumentKind(document string) (models.DocumentKind, string) {
	digits := digitsOnly(document)
	switch len(digits) {
	case 14:
		return models.DocumentCNPJ, digits
	case 11:
		return models.DocumentCPF, digits
	default:
		return models.DocumentInvalid, digits
	}
}

// DocLookupWorker implements the doc-lookup worker (§4.6.1).
type DocLookupWorker struct {
	river.WorkerDefaults[DocLookupArgs]
	Deps *Deps
}

func (w *DocLookupWorker) Work(ctx context.Context, job *river.Job[DocLookupArgs]) error {
	return runStage(ctx, w.Deps, models.StageDocLookup, queue.DocLookup, job.Args.JobPayload, w.execute, w.chain)
}

func (w *DocLookupWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	kind, digits := DetectDocumentKind(r.Document)
	r.DocumentKind = kind

	switch kind {
	case models.DocumentInvalid:
		return notApplicable("document is neither a valid CNPJ nor CPF digit count")

	case models.DocumentCNPJ:
		timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.TaxRegistry)
		defer cancel()
		res := w.Deps.TaxRegistry.Lookup(timeoutCtx, digits)
		if !res.Ok {
			return failure(res.Err)
		}
		w.applyTaxRegistry(r, res.Value)
		r.DocumentValidated = true
		return success(map[string]any{"legalName": r.LegalName, "registryStatus": r.RegistryStatus})

	case models.DocumentCPF:
		timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.CPFRegistry)
		defer cancel()
		res := w.Deps.CPFRegistry.Lookup(timeoutCtx, digits)
		if !res.Ok {
			if providers.ValidCPFChecksum(digits) {
				r.CPFStatus = "validated-only"
				r.DocumentValidated = true
				return success(map[string]any{"cpfStatus": r.CPFStatus})
			}
			return failure(res.Err)
		}
		r.CPFName = res.Value.Name
		if res.Value.ValidationOnly {
			r.CPFStatus = "validated-only"
		} else {
			r.CPFStatus = res.Value.Status
		}
		r.CPFDeceased = res.Value.Deceased
		r.DocumentValidated = true
		return success(map[string]any{"cpfStatus": r.CPFStatus})
	}

	return notApplicable("unreachable document kind")
}

func (w *DocLookupWorker) applyTaxRegistry(r *models.Record, lookup providers.TaxRegistryLookup) {
	r.LegalName = lookup.LegalName
	r.TradeName = lookup.TradeName
	r.RegistryAddress = strings.TrimSpace(strings.Join([]string{
		lookup.AddressParts.Street, lookup.AddressParts.Number, lookup.AddressParts.Complement,
		lookup.AddressParts.Neighborhood, lookup.AddressParts.City, lookup.AddressParts.State, lookup.AddressParts.Zip,
	}, " "))
	r.RegistryStatus = lookup.Status
	r.LegalNature = lookup.LegalNature
	r.MainActivity = lookup.MainActivity
	r.SimplesNacional = lookup.Simples.Optant
	r.MeiOptant = lookup.MEI.Optant
	r.Capital = lookup.Capital
	r.Size = lookup.Size

	r.FiscalRegistrations = make([]models.FiscalRegistration, 0, len(lookup.FiscalRegistrations))
	for _, fr := range lookup.FiscalRegistrations {
		r.FiscalRegistrations = append(r.FiscalRegistrations, models.FiscalRegistration{
			Number: fr.Number, State: fr.State, Status: fr.Status, Enabled: fr.Enabled,
		})
	}

	r.Partners = make([]models.Partner, 0, len(lookup.Partners))
	for _, p := range lookup.Partners {
		r.Partners = append(r.Partners, models.Partner{Name: p.Name, TaxID: p.TaxID, Role: p.Role})
	}

	if r.AddressRaw != "" && r.RegistryAddress != "" {
		sim := crossvalidate.SemanticSimilarity(r.AddressRaw, r.RegistryAddress)
		r.AddressDivergence = sim < 50
	}
}

func (w *DocLookupWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {
	_ = w.Deps.Queue.Add(ctx, queue.Normalization, NormalizationArgs{JobPayload{RecordID: r.ID}},
		queue.JobOptions{Delay: chainDelayAfterDocLookup})
}
