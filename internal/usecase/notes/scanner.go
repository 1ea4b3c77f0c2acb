package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/pkg/jobcontext"
	"github.com/ftfc/crm/pkg/metrics"
)

// Trigger names what started a scan run
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerCLI       Trigger = "cli"
)

const runLockName = "notes-scan"

// DocumentLister lists candidate meeting-note documents in a member's Drive
type DocumentLister interface {
	ListCandidates(ctx context.Context, ts oauth2.TokenSource, since time.Time) ([]entities.CandidateDocument, error)
}

// TextFetcher returns the plain text of a document
type TextFetcher interface {
	FetchText(ctx context.Context, ts oauth2.TokenSource, docID string) (string, error)
}

// CredentialSource builds a token source from a member's stored credentials
type CredentialSource interface {
	TokenSource(ctx context.Context, member *entities.TeamMember) (oauth2.TokenSource, error)
}

// RunLock keeps scan runs from overlapping
type RunLock interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
	Extend(ctx context.Context, name string, ttl time.Duration) error
}

// ScanResult summarises one run
type ScanResult struct {
	RunID          string    `json:"runId"`
	Trigger        Trigger   `json:"trigger"`
	ProcessedCount int       `json:"processedCount"`
	Skipped        int       `json:"skipped"`
	Failed         int       `json:"failed"`
	MembersScanned int       `json:"membersScanned"`
	MembersFailed  int       `json:"membersFailed"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// ScannerConfig holds the scan tuning knobs
type ScannerConfig struct {
	Lookback   time.Duration
	RunLockTTL time.Duration
}

// Scanner discovers Gemini meeting notes in every connected member's Drive
// and turns each new one into a transcript of the matching entity
type Scanner struct {
	cfg         ScannerConfig
	members     repositories.TeamMemberRepository
	credentials CredentialSource
	drive       DocumentLister
	docs        TextFetcher
	gate        *Gate
	resolver    *Resolver
	persister   *Persister
	lock        RunLock
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewScanner creates a scanner. lock may be nil, in which case overlapping
// runs are only kept apart by the dedup gate.
func NewScanner(
	cfg ScannerConfig,
	members repositories.TeamMemberRepository,
	credentials CredentialSource,
	drive DocumentLister,
	docs TextFetcher,
	gate *Gate,
	resolver *Resolver,
	persister *Persister,
	lock RunLock,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Scanner {
	return &Scanner{
		cfg:         cfg,
		members:     members,
		credentials: credentials,
		drive:       drive,
		docs:        docs,
		gate:        gate,
		resolver:    resolver,
		persister:   persister,
		lock:        lock,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// Run scans every connected member once. Member and document failures are
// logged and counted; an error is returned only when the run cannot start.
func (s *Scanner) Run(ctx context.Context, trigger Trigger) (*ScanResult, error) {
	result := &ScanResult{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.now().UTC(),
	}

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, runLockName, s.cfg.RunLockTTL)
		if err != nil {
			s.metrics.ObserveRun(string(trigger), "error", 0)
			return nil, fmt.Errorf("acquire scan lock: %w", err)
		}
		if !acquired {
			s.metrics.ObserveRun(string(trigger), "locked", 0)
			return nil, entities.ErrScanInProgress
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), runLockName); err != nil {
				s.logger.Warn("Failed to release scan lock", zap.Error(err))
			}
		}()
	}

	// The run must end before its lock can expire
	runCtx, cancel := jobcontext.RunBegin(ctx, result.RunID, string(trigger), s.cfg.RunLockTTL)
	defer cancel()

	members, err := s.members.ListConnected(runCtx)
	if err != nil {
		s.metrics.ObserveRun(string(trigger), "error", s.now().Sub(result.StartedAt))
		return nil, fmt.Errorf("list connected members: %w", err)
	}

	s.logger.Info("🔎 Scanning Drive for meeting notes",
		zap.String("run_id", result.RunID),
		zap.String("trigger", string(trigger)),
		zap.Int("members", len(members)),
	)

	since := result.StartedAt.Add(-s.cfg.Lookback)
	for _, member := range members {
		result.MembersScanned++
		memberCtx := jobcontext.WithMember(runCtx, member.Email)
		if err := s.scanMember(memberCtx, member, since, result); err != nil {
			result.MembersFailed++
			s.metrics.MemberFailuresTotal.Inc()
			s.logger.Error("Failed to scan member Drive",
				zap.String("run_id", result.RunID),
				zap.String("member", member.Email),
				zap.Error(err),
			)
		}
		s.extendLock(runCtx, result.RunID)
	}

	result.FinishedAt = s.now().UTC()
	s.metrics.ObserveRun(string(trigger), "success", result.FinishedAt.Sub(result.StartedAt))

	s.logger.Info("✅ Meeting notes scan finished",
		zap.String("run_id", result.RunID),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("members_failed", result.MembersFailed),
	)

	return result, nil
}

// extendLock refreshes the run lock between members so a long run keeps it
func (s *Scanner) extendLock(ctx context.Context, runID string) {
	if s.lock == nil {
		return
	}
	if err := s.lock.Extend(ctx, runLockName, s.cfg.RunLockTTL); err != nil {
		s.logger.Warn("Failed to extend scan lock", zap.String("run_id", runID), zap.Error(err))
	}
}

// scanMember returns an error only when the member's documents cannot be listed
func (s *Scanner) scanMember(ctx context.Context, member *entities.TeamMember, since time.Time, result *ScanResult) error {
	ts, err := s.credentials.TokenSource(ctx, member)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	candidates, err := s.drive.ListCandidates(ctx, ts, since)
	if err != nil {
		return fmt.Errorf("list candidates: %w", err)
	}

	if err := s.members.MarkScanned(ctx, member.ID, s.now().UTC()); err != nil {
		s.logger.Warn("Failed to record member scan time", zap.String("member", member.Email), zap.Error(err))
	}

	for _, doc := range candidates {
		outcome, err := s.processDocument(ctx, ts, doc, result.RunID)
		s.metrics.ObserveDocument(outcome)

		switch outcome {
		case metrics.OutcomeProcessed:
			result.ProcessedCount++
		case metrics.OutcomeFailed:
			result.Failed++
			s.logger.Error("Failed to process meeting notes",
				zap.String("run_id", result.RunID),
				zap.String("member", member.Email),
				zap.String("file_id", doc.ID),
				zap.String("title", doc.Name),
				zap.Error(err),
			)
		default:
			result.Skipped++
		}
	}
	return nil
}

// processDocument runs the per-document pipeline and returns its outcome
func (s *Scanner) processDocument(ctx context.Context, ts oauth2.TokenSource, doc entities.CandidateDocument, runID string) (outcome string, err error) {
	log := s.logger.With(zap.String("run_id", runID), zap.String("file_id", doc.ID))

	claim, err := s.gate.Claim(ctx, doc.ID, runID)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("claim: %w", err)
	}
	switch claim {
	case entities.ClaimAlreadyProcessed:
		log.Debug("Skipping document: already processed")
		return metrics.OutcomeAlreadyProcessed, nil
	case entities.ClaimHeld:
		log.Info("Skipping document: claimed by another run")
		return metrics.OutcomeClaimHeld, nil
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if relErr := s.gate.Release(context.WithoutCancel(ctx), doc.ID, runID); relErr != nil {
			log.Warn("Failed to release document claim", zap.Error(relErr))
		}
	}()

	text, err := s.docs.FetchText(ctx, ts, doc.ID)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("fetch text: %w", err)
	}

	participants := ExtractParticipants(text)
	if len(participants) == 0 {
		log.Info("Skipping document: no participants found", zap.String("title", doc.Name))
		return metrics.OutcomeNoParticipants, nil
	}

	entity, err := s.resolver.Resolve(ctx, participants)
	if err != nil {
		return metrics.OutcomeFailed, fmt.Errorf("resolve entity: %w", err)
	}
	if entity == nil {
		log.Info("Skipping document: no entity found",
			zap.String("title", doc.Name),
			zap.Strings("participants", participants),
		)
		return metrics.OutcomeNoEntity, nil
	}

	transcript, err := s.persister.Persist(ctx, PersistInput{
		RunID:        runID,
		Document:     doc,
		Text:         text,
		Participants: participants,
		Entity:       entity,
	})
	if err != nil {
		if errors.Is(err, entities.ErrClaimHeld) {
			log.Warn("Claim lost before commit", zap.Error(err))
			return metrics.OutcomeClaimHeld, nil
		}
		return metrics.OutcomeFailed, fmt.Errorf("persist: %w", err)
	}
	committed = true

	log.Info("📝 Imported meeting transcript",
		zap.String("title", doc.Name),
		zap.String("transcript_id", transcript.ID.String()),
		zap.String("entity_type", string(entity.Type)),
		zap.String("entity_id", entity.ID.String()),
	)
	return metrics.OutcomeProcessed, nil
}
