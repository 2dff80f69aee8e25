package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/refind-app/refind/internal/domain"
	"github.com/refind-app/refind/internal/domain/classify"
	"github.com/refind-app/refind/internal/domain/geo"
	"github.com/refind-app/refind/internal/logger"
	"github.com/refind-app/refind/internal/metrics"
)

// Decision outcome and drop-reason labels for metrics.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeDropped  = "dropped"

	reasonBelowThreshold = "below_threshold"
	reasonItemMissing    = "item_missing"
	reasonNoOwner        = "no_owner"
	reasonScoreOverride  = "score_override"
)

// DefaultFetchConcurrency bounds parallel candidate detail loads.
const DefaultFetchConcurrency = 4

// Config holds the pipeline thresholds.
type Config struct {
	// ScoreThreshold is the minimum similarity a candidate must reach.
	// The bound is inclusive.
	ScoreThreshold float64
	// OverrideThreshold is the similarity at which an incompatible
	// classification is waived. Never below ScoreThreshold.
	OverrideThreshold float64
	// FetchConcurrency bounds parallel candidate loads. Zero means default.
	FetchConcurrency int
}

// Pipeline evaluates retrieved candidates against the full signal set and
// produces symmetric match pairs for the ledger. One Run per trigger; runs
// are independent and safe to repeat.
type Pipeline struct {
	items      ItemReader
	candidates CandidateSource
	classifier *classify.Classifier
	gate       geo.Gate
	cfg        Config
}

// NewPipeline creates a decision pipeline.
func NewPipeline(
	items ItemReader, candidates CandidateSource,
	classifier *classify.Classifier, gate geo.Gate, cfg Config,
) *Pipeline {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}
	if cfg.OverrideThreshold < cfg.ScoreThreshold {
		cfg.OverrideThreshold = cfg.ScoreThreshold
	}
	return &Pipeline{
		items:      items,
		candidates: candidates,
		classifier: classifier,
		gate:       gate,
		cfg:        cfg,
	}
}

// Run retrieves and evaluates candidates for the source item. Returned pairs
// keep the candidates' descending score order. trigger labels the run in
// metrics and logs ("ingest" or "recheck").
func (p *Pipeline) Run(
	ctx context.Context, trigger string, source *domain.Item, vec []float32,
) ([]domain.MatchPair, error) {
	start := time.Now()

	pairs, err := p.run(ctx, trigger, source, vec)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PipelineRunsTotal.WithLabelValues(trigger, status).Inc()
	metrics.PipelineRunDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())

	return pairs, err
}

func (p *Pipeline) run(
	ctx context.Context, trigger string, source *domain.Item, vec []float32,
) ([]domain.MatchPair, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With(
		zap.String("run_id", runID),
		zap.String("trigger", trigger),
		zap.String("source_kind", string(source.Kind)),
		zap.String("source_item", source.ID),
	)

	candidates, err := p.candidates.Retrieve(ctx, vec, source.Kind.Opposite())
	if err != nil {
		return nil, fmt.Errorf("retrieve candidates: %w", err)
	}

	// Threshold filter before any detail fetch. The bound is inclusive: a
	// candidate scoring exactly the threshold stays in.
	eligible := candidates[:0]
	for _, c := range candidates {
		if c.Score < p.cfg.ScoreThreshold {
			metrics.MatchDecisionsTotal.WithLabelValues(outcomeDropped, reasonBelowThreshold).Inc()
			continue
		}
		eligible = append(eligible, c)
	}

	log.Info("pipeline run started",
		zap.Int("candidates", len(candidates)),
		zap.Int("eligible", len(eligible)),
	)

	details, err := p.fetchDetails(ctx, source.Kind.Opposite(), eligible)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var pairs []domain.MatchPair

	for i, c := range eligible {
		cand := details[i]
		if cand == nil {
			metrics.MatchDecisionsTotal.WithLabelValues(outcomeDropped, reasonItemMissing).Inc()
			continue
		}
		if cand.UserID == "" {
			metrics.MatchDecisionsTotal.WithLabelValues(outcomeDropped, reasonNoOwner).Inc()
			continue
		}

		decision := p.classifier.Classify(
			classify.Input{Category: source.Category, Description: source.ImageAnalysis},
			classify.Input{Category: cand.Category, Description: cand.ImageAnalysis},
		)

		acceptReason := string(decision.Reason)
		if !decision.Compatible {
			if c.Score < p.cfg.OverrideThreshold {
				metrics.MatchDecisionsTotal.WithLabelValues(outcomeRejected, string(decision.Reason)).Inc()
				log.Debug("candidate rejected",
					zap.String("candidate", cand.ID),
					zap.Float64("score", c.Score),
					zap.String("reason", string(decision.Reason)),
				)
				continue
			}
			// High similarity overrides the type mismatch. The geo gate
			// below still applies.
			acceptReason = reasonScoreOverride
		}

		if verdict := p.gate.Check(source.Coordinates, cand.Coordinates); !verdict.Pass {
			metrics.MatchDecisionsTotal.WithLabelValues(outcomeRejected, string(verdict.Reason)).Inc()
			log.Debug("candidate rejected",
				zap.String("candidate", cand.ID),
				zap.Float64("score", c.Score),
				zap.String("reason", string(verdict.Reason)),
				zap.Float64("distance_km", verdict.DistanceKM),
			)
			continue
		}

		metrics.MatchDecisionsTotal.WithLabelValues(outcomeAccepted, acceptReason).Inc()
		log.Info("candidate accepted",
			zap.String("candidate", cand.ID),
			zap.Float64("score", c.Score),
			zap.String("reason", acceptReason),
		)

		pairs = append(pairs, buildPair(source, cand, c.Score, now))
	}

	log.Info("pipeline run finished", zap.Int("accepted", len(pairs)))
	return pairs, nil
}

// fetchDetails loads candidate items in parallel, bounded by
// FetchConcurrency. A missing item yields a nil slot, any other error fails
// the run. details[i] corresponds to eligible[i].
func (p *Pipeline) fetchDetails(
	ctx context.Context, kind domain.Kind, eligible []domain.MatchCandidate,
) ([]*domain.Item, error) {
	details := make([]*domain.Item, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FetchConcurrency)

	for i, c := range eligible {
		g.Go(func() error {
			it, err := p.items.Get(gctx, kind, c.ItemID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("get candidate %s/%s: %w", kind, c.ItemID, err)
			}
			details[i] = it
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// buildPair produces the two sides of an accepted match. Each side names the
// other party and both carry the same score and timestamp.
func buildPair(source, cand *domain.Item, score float64, now time.Time) domain.MatchPair {
	return domain.MatchPair{
		SourceKind:   source.Kind,
		SourceItemID: source.ID,
		TargetItemID: cand.ID,
		Source: domain.MatchRecord{
			ItemID:    cand.ID,
			UserID:    cand.UserID,
			Score:     score,
			Kind:      cand.Kind,
			Status:    domain.StatusPending,
			CreatedAt: now,
			Category:  cand.Category,
		},
		Target: domain.MatchRecord{
			ItemID:    source.ID,
			UserID:    source.UserID,
			Score:     score,
			Kind:      source.Kind,
			Status:    domain.StatusPending,
			CreatedAt: now,
			Category:  source.Category,
		},
	}
}
