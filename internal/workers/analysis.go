package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/catalogforge/enrichment-engine/internal/cache"
	"github.com/catalogforge/enrichment-engine/internal/confidence"
	"github.com/catalogforge/enrichment-engine/internal/crossvalidate"
	"github.com/catalogforge/enrichment-engine/internal/providers"
	"github.com/catalogforge/enrichment-engine/internal/queue"
	"github.com/catalogforge/enrichment-engine/pkg/models"
)

const promptVersion = "v1"

// AnalysisWorker implements the photo cross-validation worker (§4.4.4,
// §4.6.5): a cheap pre-classify pass, a deep vision pass over the
// FACADE-filtered batch, and the recomputed scoring + Universal
// Confidence.
type AnalysisWorker struct {
	river.WorkerDefaults[AnalysisArgs]
	Deps *Deps
}

func (w *AnalysisWorker) Work(ctx context.Context, job *river.Job[AnalysisArgs]) error {
	return runStage(ctx, w.Deps, models.StageAnalysis, queue.Analysis, job.Args.JobPayload, w.execute, w.chain)
}

type classifiedPhoto struct {
	photo    *models.Photo
	data     []byte
	category string
}

func (w *AnalysisWorker) execute(ctx context.Context, r *models.Record) stageOutcome {
	photos, err := w.Deps.Photos.ListUnanalyzed(ctx, r.ID)
	if err != nil {
		return failure(err)
	}
	if len(photos) == 0 {
		r.AnalysisSourcesAvailable = 0
		return notApplicable("no unanalyzed photos for this record")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, w.Deps.Cfg.Timeouts.LLMVision)
	defer cancel()

	classified := make([]classifiedPhoto, 0, len(photos))
	for _, p := range photos {
		data, ok := w.readPhotoBytes(p)
		if !ok {
			continue
		}
		hash := p.FileHash
		if hash == "" {
			sum := sha256.Sum256(data)
			hash = hex.EncodeToString(sum[:])
		}

		category := w.preClassify(timeoutCtx, data, hash)
		classified = append(classified, classifiedPhoto{photo: p, data: data, category: category})
	}

	if len(classified) == 0 {
		for _, p := range photos {
			p.AnalyzedByAI = true
			p.AnalysisResult = map[string]any{"formatInvalid": true}
			_ = w.Deps.Photos.SetAnalysisResult(ctx, p)
		}
		r.AnalysisSourcesAvailable = 0
		return success(map[string]any{"photosAnalyzed": 0, "allInvalid": true})
	}

	facade := make([]classifiedPhoto, 0, len(classified))
	for _, c := range classified {
		if c.category == string(models.PhotoFacade) {
			facade = append(facade, c)
		}
	}
	if len(facade) == 0 {
		facade = classified
	}

	var signageQuality, professionalism, audience, ambience string
	brandingPresent := false
	deepSourcesUsed := 0

	for _, c := range facade {
		votes := []crossvalidate.PhotoVote{{Source: "PRECLASSIFY", Category: c.category, Confidence: 70}}

		deepRes := w.Deps.VisionDeep.AnalyzePhoto(timeoutCtx, c.data, "image/jpeg")
		if deepRes.Ok {
			deepSourcesUsed++
			if deepRes.Value.LooksOpenForBusiness {
				brandingPresent = true
			}
			if len(deepRes.Value.QualitySignals) > 0 {
				signageQuality = deepRes.Value.QualitySignals[0]
			}
			professionalism = deepRes.Value.Notes
		}

		classifyRes := w.Deps.VisionDeep.ClassifyPhoto(timeoutCtx, c.data, "image/jpeg")
		if classifyRes.Ok {
			votes = append(votes, crossvalidate.PhotoVote{
				Source: "VISION_LLM_DEEP", Category: strings.ToUpper(classifyRes.Value.Category), Confidence: classifyRes.Value.Confidence,
			})
		}

		resolution := crossvalidate.ResolvePhotoCategory(votes)
		c.photo.Category = models.PhotoCategory(resolution.Category)
		c.photo.CategoryConfidence = int(resolution.Confidence)
		c.photo.AnalyzedByAI = true
		c.photo.AnalysisResult = map[string]any{"votes": votes, "needsReview": resolution.NeedsReview}
		_ = w.Deps.Photos.SetAnalysisResult(ctx, c.photo)
	}

	for _, p := range photos {
		if p.AnalyzedByAI {
			continue
		}
		p.AnalyzedByAI = true
		p.AnalysisResult = map[string]any{"formatInvalid": true}
		_ = w.Deps.Photos.SetAnalysisResult(ctx, p)
	}

	allPhotos, err := w.Deps.Photos.ListByRecord(ctx, r.ID)
	if err != nil {
		return failure(err)
	}

	r.SignageQuality = signageQuality
	r.BrandingPresent = brandingPresent
	r.ProfessionalismLevel = professionalism
	r.Audience = audience
	r.Ambience = ambience
	r.VisualIndicators = map[string]any{"facadePhotosAnalyzed": len(facade), "totalPhotosAnalyzed": len(classified)}

	sourcesAvailable := 1
	if deepSourcesUsed > 0 {
		sourcesAvailable = 2
	}
	r.AnalysisSourcesAvailable = sourcesAvailable
	r.VisualAnalysisConfidence = visualConfidence(facade, deepSourcesUsed)

	r.NomeFantasiaMatch = int(crossvalidate.TradeNameMatch(r.NameRaw, r.TradeName, r.PlaceTypesPrimary))

	score, category, breakdown := scorePotential(r, len(allPhotos))
	r.PotentialScore = score
	r.PotentialCategory = category
	r.ScoringBreakdown = breakdown

	result := confidence.Aggregate(confidence.InputsFromRecord(r), w.Deps.Weights)
	r.ConfidenceOverall = result.Overall
	r.ConfidenceCategory = result.Category
	r.ConfidenceLevel = result.Level
	r.NeedsReview = result.NeedsReview
	r.Alerts = result.Alerts
	r.Recommendations = result.Recommendations

	return success(map[string]any{"photosAnalyzed": len(classified), "confidenceOverall": r.ConfidenceOverall})
}

func visualConfidence(facade []classifiedPhoto, deepSourcesUsed int) int {
	if len(facade) == 0 {
		return 0
	}
	base := 60
	if deepSourcesUsed > 0 {
		base = 80
	}
	return base
}

// preClassify checks the analysis cache before spending a cheap vision
// call, per §4.6.5 ("lookup ... on hit reuse; on miss pre-classify").
func (w *AnalysisWorker) preClassify(ctx context.Context, data []byte, hash string) string {
	var cached providers.PhotoClassification
	if ok, _ := w.Deps.Cache.Get(ctx, cache.PrefixAnalysis, cache.AnalysisCacheKey(hash, promptVersion, "precheck"), &cached); ok {
		return strings.ToUpper(cached.Category)
	}
	if category, ok := w.preClassifyFromDurableCache(ctx, hash); ok {
		return category
	}

	res := w.Deps.VisionPre.ClassifyPhoto(ctx, data, "image/jpeg")
	if !res.Ok {
		return string(models.PhotoOther)
	}
	_ = w.Deps.Cache.Set(ctx, cache.PrefixAnalysis, cache.AnalysisCacheKey(hash, promptVersion, "precheck"), res.Value, cache.TTLPhotoAnalysis)
	w.saveDurableCache(ctx, hash, res.Value)
	return strings.ToUpper(res.Value.Category)
}

// preClassifyFromDurableCache consults the Postgres-backed analysis
// cache on a Redis miss, per the degraded-mode read path of §4.5.
func (w *AnalysisWorker) preClassifyFromDurableCache(ctx context.Context, hash string) (string, bool) {
	if w.Deps.AnalysisCache == nil {
		return "", false
	}
	entry, err := w.Deps.AnalysisCache.Get(ctx, hash, promptVersion, "precheck")
	if err != nil {
		return "", false
	}
	category, _ := entry.Result["category"].(string)
	if category == "" {
		return "", false
	}
	return strings.ToUpper(category), true
}

func (w *AnalysisWorker) saveDurableCache(ctx context.Context, hash string, result providers.PhotoClassification) {
	if w.Deps.AnalysisCache == nil {
		return
	}
	resultMap := map[string]any{"category": result.Category, "confidence": result.Confidence}
	entry := &models.AnalysisCacheEntry{
		PhotoHash:     hash,
		PromptVersion: promptVersion,
		ModelID:       "precheck",
		Result:        resultMap,
	}
	if err := w.Deps.AnalysisCache.Set(ctx, entry); err != nil {
		w.Deps.Logger.Warn("failed to persist durable analysis cache entry", zap.Error(err))
	}
}

// readPhotoBytes loads a photo's bytes from local storage, falling back
// to a network re-fetch via the shared PhotoFetcher when no local copy
// was persisted (§6.3).
func (w *AnalysisWorker) readPhotoBytes(p *models.Photo) ([]byte, bool) {
	if p.FileName != "" {
		data, err := os.ReadFile(filepath.Join(w.Deps.Cfg.PhotoStorageDir, p.FileName))
		if err == nil {
			return data, true
		}
	}
	if p.ExternalRef == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.Deps.Cfg.Timeouts.Places)
	defer cancel()
	res := w.Deps.PhotoFetch.Fetch(ctx, p.ExternalRef)
	if !res.Ok {
		w.Deps.Logger.Warn("photo unavailable for analysis", zap.String("photoId", p.ID), zap.Error(res.Err))
		return nil, false
	}
	return res.Value.Data, true
}

func (w *AnalysisWorker) chain(ctx context.Context, r *models.Record, outcome stageOutcome) {
	if r.AnalystStatus != "" {
		return
	}
	_ = w.Deps.Queue.Add(ctx, queue.Analyst, AnalystArgs{JobPayload{RecordID: r.ID}}, queue.JobOptions{})
}
