package application

import (
	"context"
	"fmt"
	"time"

	"github.com/advancehq/steward/internal/domain"
	"github.com/advancehq/steward/internal/infrastructure/logging"
)

// TimeProvider abstracts time acquisition for testability.
// inject a custom implementation to control time in tests.
type TimeProvider func() time.Time

// RealTime returns the current UTC time.
// use this in production.
func RealTime() time.Time {
	return time.Now().UTC()
}

// ScoringOptions carries the organization-level calendar and weight
// context the scorers need beyond per-constituent history.
type ScoringOptions struct {
	// FiscalYearEnd is any date on the organization's fiscal year-end.
	// only month and day matter. zero defaults to June 30.
	FiscalYearEnd time.Time

	// ActiveCampaigns lists the names of currently running campaigns.
	ActiveCampaigns []string

	// PriorityWeights overrides the default priority factor weights.
	PriorityWeights *domain.PriorityWeights

	// LapseWeights overrides the default lapse risk factor weights.
	LapseWeights *domain.LapseWeights
}

// DefaultScoringOptions returns options with all defaults in place.
func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{}
}

// RankingUpdater abstracts the cache layer for priority rankings.
// allows the use case to remain decoupled from redis specifics.
type RankingUpdater interface {
	UpdatePriorityScore(ctx context.Context, organizationID, constituentID string, score float64) error
}

// ScoringMetricsRecorder abstracts prometheus metrics for scoring runs.
type ScoringMetricsRecorder interface {
	RecordConstituentScored(organizationID, outcome string)
}

// ScoreConstituentInput identifies the constituent to score.
type ScoreConstituentInput struct {
	ConstituentID string

	// OrganizationID restricts the run to constituents of that
	// organization when set. a constituent outside it reports
	// ErrNotFound before anything is computed or written.
	OrganizationID string
}

// ScoreConstituentOutput contains both freshly computed composites.
type ScoreConstituentOutput struct {
	ConstituentID  string
	OrganizationID string
	Priority       domain.CompositeScore
	LapseRisk      domain.LapseRiskResult
	ScoredAt       time.Time
}

// ScoreConstituentUseCase computes and stores both composite scores for
// a constituent: lapse risk first, then priority, which consumes the
// risk score as its likelihood signal.
type ScoreConstituentUseCase struct {
	constituentRepo domain.ConstituentRepository
	historyRepo     domain.HistoryRepository
	options         ScoringOptions
	timeProvider    TimeProvider
	ranking         RankingUpdater
	metrics         ScoringMetricsRecorder
	logger          *logging.Logger
}

// NewScoreConstituentUseCase creates a new ScoreConstituentUseCase.
func NewScoreConstituentUseCase(
	constituentRepo domain.ConstituentRepository,
	historyRepo domain.HistoryRepository,
	options ScoringOptions,
	logger *logging.Logger,
) *ScoreConstituentUseCase {
	return &ScoreConstituentUseCase{
		constituentRepo: constituentRepo,
		historyRepo:     historyRepo,
		options:         options,
		timeProvider:    RealTime,
		logger:          logger.WithComponent("score_constituent"),
	}
}

// WithTimeProvider sets a custom time provider for testing.
func (uc *ScoreConstituentUseCase) WithTimeProvider(tp TimeProvider) *ScoreConstituentUseCase {
	uc.timeProvider = tp
	return uc
}

// WithRanking sets the ranking updater (redis cache).
// when set, priority updates are also pushed to the cache.
func (uc *ScoreConstituentUseCase) WithRanking(r RankingUpdater) *ScoreConstituentUseCase {
	uc.ranking = r
	return uc
}

// WithMetrics sets the metrics recorder for observability.
func (uc *ScoreConstituentUseCase) WithMetrics(m ScoringMetricsRecorder) *ScoreConstituentUseCase {
	uc.metrics = m
	return uc
}

// Execute scores one constituent and persists the results.
func (uc *ScoreConstituentUseCase) Execute(ctx context.Context, input ScoreConstituentInput) (*ScoreConstituentOutput, error) {
	constituentID, err := domain.ParseConstituentID(input.ConstituentID)
	if err != nil {
		uc.logger.Warn("scoring rejected: invalid constituent id",
			"constituent_id", input.ConstituentID,
			"reason", err.Error(),
		)
		return nil, fmt.Errorf("invalid constituent id: %w", err)
	}

	constituent, err := uc.constituentRepo.FindByID(ctx, constituentID)
	if err != nil {
		uc.recordOutcome("", "failed")
		return nil, fmt.Errorf("constituent lookup: %w", err)
	}

	organizationID := constituent.OrganizationID()

	// the scope check runs before scoring so a caller outside the
	// organization triggers no writes, not just a hidden response
	if input.OrganizationID != "" && input.OrganizationID != organizationID.String() {
		uc.logger.Warn("scoring rejected: constituent outside caller organization",
			"constituent_id", constituentID.String(),
			"caller_organization_id", input.OrganizationID,
		)
		return nil, domain.ErrNotFound
	}

	gifts, contacts, err := uc.loadHistory(ctx, constituentID)
	if err != nil {
		uc.recordOutcome(organizationID.String(), "failed")
		return nil, err
	}

	now := uc.timeProvider()

	priority, lapse := uc.scorePair(constituent, gifts, contacts, now)

	if err := uc.constituentRepo.UpdateScores(ctx, constituentID, priority.Score, lapse.Score, now); err != nil {
		uc.recordOutcome(organizationID.String(), "failed")
		uc.logger.Error("score persistence failed",
			"constituent_id", constituentID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("updating scores: %w", err)
	}

	// sync to redis ranking (best-effort, postgres is the source of truth)
	uc.syncRanking(ctx, organizationID, constituentID, priority.Score.Value())

	uc.recordOutcome(organizationID.String(), "success")
	uc.logger.ConstituentScored(constituentID.String(), priority.Score.Value(), lapse.Score.Value())

	return &ScoreConstituentOutput{
		ConstituentID:  constituentID.String(),
		OrganizationID: organizationID.String(),
		Priority:       priority,
		LapseRisk:      lapse,
		ScoredAt:       now,
	}, nil
}

// scorePair runs both scorers with the lapse risk feeding the priority
// likelihood factor.
func (uc *ScoreConstituentUseCase) scorePair(
	constituent *domain.Constituent,
	gifts []domain.Gift,
	contacts []domain.Contact,
	referenceDate time.Time,
) (domain.CompositeScore, domain.LapseRiskResult) {
	lapse := domain.CalculateLapseRisk(domain.LapseInput{
		Gifts:         gifts,
		Contacts:      contacts,
		ReferenceDate: referenceDate,
		Weights:       uc.options.LapseWeights,
	})

	lapseValue := lapse.Score.Value()
	lapseConfidence := lapse.Confidence

	priority := domain.CalculatePriorityScore(domain.PriorityInput{
		Capacity: domain.CapacityInput{
			Estimated: constituent.EstimatedCapacity(),
			Source:    constituent.CapacitySource(),
		},
		LapseRisk: domain.LikelihoodInput{
			LapseRisk:           &lapseValue,
			LapseRiskConfidence: &lapseConfidence,
		},
		Timing: domain.TimingInput{
			FiscalYearEnd: uc.options.FiscalYearEnd,
			Campaigns:     uc.options.ActiveCampaigns,
		},
		Gifts:         gifts,
		Contacts:      contacts,
		ReferenceDate: referenceDate,
		Weights:       uc.options.PriorityWeights,
	})

	return priority, lapse
}

func (uc *ScoreConstituentUseCase) loadHistory(ctx context.Context, id domain.ConstituentID) ([]domain.Gift, []domain.Contact, error) {
	gifts, err := uc.historyRepo.GiftsByConstituent(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading gifts: %w", err)
	}

	contacts, err := uc.historyRepo.ContactsByConstituent(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading contacts: %w", err)
	}

	return gifts, contacts, nil
}

func (uc *ScoreConstituentUseCase) syncRanking(ctx context.Context, organizationID domain.OrganizationID, constituentID domain.ConstituentID, score float64) {
	if uc.ranking == nil {
		return
	}

	if err := uc.ranking.UpdatePriorityScore(ctx, organizationID.String(), constituentID.String(), score); err != nil {
		// log but don't fail - postgres holds the authoritative scores
		uc.logger.Warn("priority ranking sync failed",
			"constituent_id", constituentID.String(),
			"score", score,
			"error", err.Error(),
		)
	}
}

func (uc *ScoreConstituentUseCase) recordOutcome(organizationID, outcome string) {
	if uc.metrics != nil {
		uc.metrics.RecordConstituentScored(organizationID, outcome)
	}
}

// ScoreOrganizationInput selects the organization to sweep.
type ScoreOrganizationInput struct {
	OrganizationID string
	Limit          int // max constituents to process, 0 for all
}

// ScoreOrganizationOutput contains the result of a scoring sweep.
type ScoreOrganizationOutput struct {
	Processed int
	Succeeded int
	Failed    int
}

// defaultSweepLimit bounds a sweep when no limit is requested.
const defaultSweepLimit = 10000

// ExecuteAll re-scores every constituent in an organization.
// history is loaded per constituent, then both scorers run as a batch
// so the fan-out stays inside the domain layer.
func (uc *ScoreConstituentUseCase) ExecuteAll(ctx context.Context, input ScoreOrganizationInput) (*ScoreOrganizationOutput, error) {
	organizationID, err := domain.ParseOrganizationID(input.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id: %w", err)
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultSweepLimit
	}

	constituents, err := uc.constituentRepo.ListByOrganization(ctx, organizationID, limit, 0)
	if err != nil {
		uc.logger.Error("scoring sweep failed: listing constituents",
			"organization_id", organizationID.String(),
			"error", err.Error(),
		)
		return nil, fmt.Errorf("listing constituents: %w", err)
	}

	output := &ScoreOrganizationOutput{
		Processed: len(constituents),
	}

	now := uc.timeProvider()

	// collect history up front so failures are attributed per constituent
	type scoringJob struct {
		constituent *domain.Constituent
		gifts       []domain.Gift
		contacts    []domain.Contact
	}

	jobs := make([]scoringJob, 0, len(constituents))
	for _, c := range constituents {
		gifts, contacts, err := uc.loadHistory(ctx, c.ID())
		if err != nil {
			output.Failed++
			uc.recordOutcome(organizationID.String(), "failed")
			uc.logger.Warn("skipping constituent: history load failed",
				"constituent_id", c.ID().String(),
				"error", err.Error(),
			)
			continue
		}
		jobs = append(jobs, scoringJob{constituent: c, gifts: gifts, contacts: contacts})
	}

	// lapse risk first: its composite feeds the priority likelihood factor
	lapseItems := make([]domain.LapseBatchItem, len(jobs))
	for i, job := range jobs {
		lapseItems[i] = domain.LapseBatchItem{
			ID: job.constituent.ID(),
			Input: domain.LapseInput{
				Gifts:    job.gifts,
				Contacts: job.contacts,
				Weights:  uc.options.LapseWeights,
			},
		}
	}
	lapseResults := domain.CalculateBatchLapseRisk(lapseItems, now)

	lapseByID := make(map[string]domain.LapseRiskResult, len(lapseResults))
	for _, r := range lapseResults {
		lapseByID[r.ID.String()] = r.Result
	}

	priorityItems := make([]domain.PriorityBatchItem, len(jobs))
	for i, job := range jobs {
		lapse := lapseByID[job.constituent.ID().String()]
		lapseValue := lapse.Score.Value()
		lapseConfidence := lapse.Confidence

		priorityItems[i] = domain.PriorityBatchItem{
			ID: job.constituent.ID(),
			Input: domain.PriorityInput{
				Capacity: domain.CapacityInput{
					Estimated: job.constituent.EstimatedCapacity(),
					Source:    job.constituent.CapacitySource(),
				},
				LapseRisk: domain.LikelihoodInput{
					LapseRisk:           &lapseValue,
					LapseRiskConfidence: &lapseConfidence,
				},
				Timing: domain.TimingInput{
					FiscalYearEnd: uc.options.FiscalYearEnd,
					Campaigns:     uc.options.ActiveCampaigns,
				},
				Gifts:    job.gifts,
				Contacts: job.contacts,
				Weights:  uc.options.PriorityWeights,
			},
		}
	}
	priorityResults := domain.CalculateBatchPriorityScores(priorityItems, now)

	priorityByID := make(map[string]domain.CompositeScore, len(priorityResults))
	for _, r := range priorityResults {
		priorityByID[r.ID.String()] = r.Result
	}

	for _, job := range jobs {
		id := job.constituent.ID()
		priority := priorityByID[id.String()]
		lapse := lapseByID[id.String()]

		if err := uc.constituentRepo.UpdateScores(ctx, id, priority.Score, lapse.Score, now); err != nil {
			output.Failed++
			uc.recordOutcome(organizationID.String(), "failed")
			uc.logger.Warn("score persistence failed during sweep",
				"constituent_id", id.String(),
				"error", err.Error(),
			)
			continue
		}

		uc.syncRanking(ctx, organizationID, id, priority.Score.Value())
		uc.recordOutcome(organizationID.String(), "success")
		output.Succeeded++
	}

	uc.logger.ScoringSweepCompleted(organizationID.String(), output.Processed, output.Succeeded, output.Failed)

	return output, nil
}
