package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/planner"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/export"
)

type planExamReader interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, error)
}

type planSessionStore interface {
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) ([]models.StudySession, error)
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.StudySession) error
}

type calendarReader interface {
	ListOverlapping(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, error)
}

type preferenceResolver interface {
	Get(ctx context.Context, userID string) (*dto.PlannerPreferences, error)
}

// StudyPlanConfig tunes plan generation.
type StudyPlanConfig struct {
	Defaults PlannerDefaults
	// Clock overrides time.Now, mainly for tests.
	Clock func() time.Time
}

// StudyPlanService turns exams and existing commitments into study session proposals.
type StudyPlanService struct {
	exams     planExamReader
	sessions  planSessionStore
	calendar  calendarReader
	prefs     preferenceResolver
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	defaults  PlannerDefaults
	clock     func() time.Time
	store     *proposalStore
}

// NewStudyPlanService wires plan dependencies.
func NewStudyPlanService(
	exams planExamReader,
	sessions planSessionStore,
	calendar calendarReader,
	prefs preferenceResolver,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg StudyPlanConfig,
) *StudyPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &StudyPlanService{
		exams:     exams,
		sessions:  sessions,
		calendar:  calendar,
		prefs:     prefs,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		defaults:  cfg.Defaults.withFallbacks(),
		clock:     cfg.Clock,
		store:     newProposalStore(cfg.Clock),
	}
}

// Preview computes a plan for the user's active exams and keeps it as a proposal.
func (s *StudyPlanService) Preview(ctx context.Context, userID string, req dto.PlanPreviewRequest) (*dto.PlanPreviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan preview payload")
	}
	now := s.clock()

	cfg, err := s.resolveConfig(ctx, userID, req, now)
	if err != nil {
		return nil, err
	}
	exams, err := s.selectExams(ctx, userID, req.ExamIDs)
	if err != nil {
		return nil, err
	}

	deadlines := make([]planner.Deadline, 0, len(exams))
	titles := make(map[string]string, len(exams))
	var horizon time.Time
	for _, exam := range exams {
		titles[exam.ID] = exam.Title
		deadlines = append(deadlines, planner.Deadline{
			ID:             exam.ID,
			Title:          exam.Title,
			Subject:        exam.Subject,
			Due:            exam.DueDate,
			Priority:       exam.Priority,
			Difficulty:     exam.Difficulty,
			EstimatedHours: exam.EstimatedHours,
		})
		if exam.DueDate.After(horizon) {
			horizon = exam.DueDate
		}
	}

	var busy []planner.BusyInterval
	if horizon.After(now) {
		busy, err = s.busyIntervals(ctx, userID, now, horizon)
		if err != nil {
			return nil, err
		}
	}

	started := time.Now()
	result, err := planner.ComputeSuggestions(deadlines, busy, cfg)
	elapsed := time.Since(started)
	if err != nil {
		outcome := PlanResultError
		if errors.Is(err, planner.ErrInvalidConfig) || errors.Is(err, planner.ErrInvalidInput) {
			outcome = PlanResultInvalid
		}
		s.metrics.ObservePlanRun(outcome, 0, 0, elapsed)
		return nil, plannerError(err)
	}
	outcome := PlanResultOK
	if !horizon.After(now) {
		outcome = PlanResultEmpty
	}
	s.metrics.ObservePlanRun(outcome, result.Requested(), result.Placed(), elapsed)

	proposal := planProposal{
		ID:          uuid.NewString(),
		UserID:      userID,
		GeneratedAt: now,
		ExpiresAt:   now.Add(s.defaults.ProposalTTL),
		Location:    cfg.Location,
		Sessions:    make([]dto.SuggestedSession, 0, len(result.Sessions)),
		Report:      make([]dto.ExamPlanReport, 0, len(result.Report)),
	}
	if proposal.Location == nil {
		proposal.Location = s.defaults.Location
	}
	for _, suggestion := range result.Sessions {
		proposal.Sessions = append(proposal.Sessions, dto.SuggestedSession{
			ID:         suggestion.ID,
			ExamID:     suggestion.DeadlineID,
			Title:      suggestion.Title,
			Start:      suggestion.Start,
			End:        suggestion.End,
			Reason:     suggestion.Reason,
			SlotLabel:  suggestion.SlotLabel,
			DaysBefore: suggestion.DaysBefore,
		})
	}
	for _, r := range result.Report {
		proposal.Report = append(proposal.Report, dto.ExamPlanReport{
			ExamID:    r.DeadlineID,
			Title:     titles[r.DeadlineID],
			Requested: r.Requested,
			Placed:    r.Placed,
			PastDue:   r.PastDue,
		})
	}
	s.store.Save(proposal)

	s.logger.Info("study plan computed",
		zap.String("user_id", userID),
		zap.String("proposal_id", proposal.ID),
		zap.Int("exams", len(deadlines)),
		zap.Int("busy", len(busy)),
		zap.Int("requested", result.Requested()),
		zap.Int("placed", result.Placed()),
		zap.Duration("elapsed", elapsed),
	)
	return proposal.response(), nil
}

// Proposal returns a stored, unexpired proposal owned by the user.
func (s *StudyPlanService) Proposal(ctx context.Context, userID, proposalID string) (*dto.PlanPreviewResponse, error) {
	proposal, err := s.proposal(userID, proposalID)
	if err != nil {
		return nil, err
	}
	return proposal.response(), nil
}

// Accept persists the chosen suggestions of a proposal as study sessions. An empty
// selection accepts every suggestion. The proposal is claimed for the duration of the
// call, so concurrent accepts of the same proposal cannot both persist it; it is put
// back when acceptance fails.
func (s *StudyPlanService) Accept(ctx context.Context, userID string, req dto.AcceptPlanRequest) (resp *dto.AcceptPlanResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	proposal, ok := s.store.Take(strings.TrimSpace(req.ProposalID), userID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	defer func() {
		if err != nil {
			s.store.Restore(proposal)
		}
	}()
	chosen, err := pickSuggestions(proposal.Sessions, req.SessionIDs)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	for _, suggestion := range chosen {
		if suggestion.Start.Before(now) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session %s has already started; preview the plan again", suggestion.ID))
		}
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	from, to := chosen[0].Start, chosen[0].End
	for _, suggestion := range chosen[1:] {
		if suggestion.Start.Before(from) {
			from = suggestion.Start
		}
		if suggestion.End.After(to) {
			to = suggestion.End
		}
	}
	existing, err := s.sessions.ListOverlapping(ctx, tx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing sessions")
	}
	for _, suggestion := range chosen {
		for _, session := range existing {
			if planner.Overlaps(suggestion.Start, suggestion.End, session.ScheduledStart, session.ScheduledEnd) {
				err = appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("session %s overlaps study session %s", suggestion.ID, session.ID))
				return nil, err
			}
		}
	}

	created := make([]models.StudySession, 0, len(chosen))
	for _, suggestion := range chosen {
		session := &models.StudySession{
			UserID:         userID,
			ExamID:         suggestion.ExamID,
			Title:          suggestion.Title,
			ScheduledStart: suggestion.Start.UTC(),
			ScheduledEnd:   suggestion.End.UTC(),
			Notes:          suggestion.Reason,
		}
		if err = s.sessions.Create(ctx, tx, session); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist study session")
		}
		created = append(created, *session)
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit study plan")
	}

	s.metrics.ObservePlanAccepted(len(created))
	s.logger.Info("study plan accepted", zap.String("user_id", userID), zap.String("proposal_id", proposal.ID), zap.Int("sessions", len(created)))
	return &dto.AcceptPlanResponse{ProposalID: proposal.ID, Sessions: created}, nil
}

// Export renders a stored proposal as CSV or PDF.
func (s *StudyPlanService) Export(ctx context.Context, userID, proposalID, format string) (*dto.PlanExport, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	proposal, err := s.proposal(userID, proposalID)
	if err != nil {
		return nil, err
	}
	renderer, err := export.RendererFor(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	payload, err := renderer.Render(planDataset(proposal))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render study plan")
	}
	stamp := proposal.GeneratedAt.In(proposal.Location).Format("2006-01-02 15:04")
	return &dto.PlanExport{
		Filename:    fmt.Sprintf("%s.%s", slug.Make("study plan "+stamp), f),
		ContentType: f.ContentType(),
		Payload:     payload,
	}, nil
}

// PurgeExpired drops expired proposals. It runs from the maintenance scheduler.
func (s *StudyPlanService) PurgeExpired(ctx context.Context) error {
	if removed := s.store.Purge(); removed > 0 {
		s.logger.Debug("expired study plan proposals purged", zap.Int("removed", removed))
	}
	return nil
}

func (s *StudyPlanService) proposal(userID, proposalID string) (planProposal, error) {
	proposal, ok := s.store.Get(strings.TrimSpace(proposalID))
	if !ok || proposal.UserID != userID {
		return planProposal{}, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return proposal, nil
}

// resolveConfig layers request overrides over stored preferences over defaults.
func (s *StudyPlanService) resolveConfig(ctx context.Context, userID string, req dto.PlanPreviewRequest, now time.Time) (planner.Config, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return planner.Config{}, err
	}
	cfg := planner.Config{
		Now:                    now,
		Location:               s.defaults.Location,
		PreferredSlots:         slotsToPlanner(prefs.PreferredSlots),
		Intervals:              append([]int(nil), prefs.Intervals...),
		SessionDurationHours:   prefs.SessionDurationHours,
		MaxSessionsPerDeadline: s.defaults.MaxSessionsPerDeadline,
	}
	if len(req.PreferredSlots) > 0 {
		cfg.PreferredSlots = slotsToPlanner(req.PreferredSlots)
	}
	if len(req.Intervals) > 0 {
		cfg.Intervals = append([]int(nil), req.Intervals...)
	}
	if req.SessionDurationHours != nil {
		cfg.SessionDurationHours = *req.SessionDurationHours
	}
	if req.MaxSessionsPerDeadline != nil {
		cfg.MaxSessionsPerDeadline = *req.MaxSessionsPerDeadline
	}
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return planner.Config{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown timezone %q", tz))
		}
		cfg.Location = loc
	}
	if len(req.SubjectOverrides) > 0 {
		cfg.SubjectOverrides = make(map[string]planner.SubjectOverride, len(req.SubjectOverrides))
		for subject, override := range req.SubjectOverrides {
			cfg.SubjectOverrides[strings.ToLower(strings.TrimSpace(subject))] = planner.SubjectOverride{
				EstimatedHours: override.EstimatedHours,
				Priority:       override.Priority,
			}
		}
	}
	return cfg, nil
}

func (s *StudyPlanService) selectExams(ctx context.Context, userID string, ids []string) ([]models.Exam, error) {
	exams, err := s.exams.List(ctx, models.ExamFilter{UserID: userID, Status: models.ExamStatusActive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exams")
	}
	if len(ids) == 0 {
		return exams, nil
	}
	byID := make(map[string]models.Exam, len(exams))
	for _, exam := range exams {
		byID[exam.ID] = exam
	}
	selected := make([]models.Exam, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		exam, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("active exam %s not found", id))
		}
		selected = append(selected, exam)
	}
	return selected, nil
}

func (s *StudyPlanService) busyIntervals(ctx context.Context, userID string, from, to time.Time) ([]planner.BusyInterval, error) {
	events, err := s.calendar.ListOverlapping(ctx, models.CalendarFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}
	sessions, err := s.sessions.ListOverlapping(ctx, nil, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study sessions")
	}

	busy := make([]planner.BusyInterval, 0, len(events)+len(sessions))
	for _, event := range events {
		busy = append(busy, planner.BusyInterval{ID: "event:" + event.ID, Title: event.Title, Start: event.StartTime, End: event.EndTime})
	}
	for _, session := range sessions {
		busy = append(busy, planner.BusyInterval{ID: "session:" + session.ID, Title: session.Title, Start: session.ScheduledStart, End: session.ScheduledEnd})
	}
	return busy, nil
}

func pickSuggestions(all []dto.SuggestedSession, ids []string) ([]dto.SuggestedSession, error) {
	if len(all) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal has no sessions to accept")
	}
	if len(ids) == 0 {
		return append([]dto.SuggestedSession(nil), all...), nil
	}
	byID := make(map[string]dto.SuggestedSession, len(all))
	for _, suggestion := range all {
		byID[suggestion.ID] = suggestion
	}
	chosen := make([]dto.SuggestedSession, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		suggestion, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %s is not part of the proposal", id))
		}
		chosen = append(chosen, suggestion)
	}
	return chosen, nil
}

func planDataset(proposal planProposal) export.Dataset {
	loc := proposal.Location
	titles := make(map[string]string, len(proposal.Report))
	for _, r := range proposal.Report {
		titles[r.ExamID] = r.Title
	}
	sessions := append([]dto.SuggestedSession(nil), proposal.Sessions...)
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Start.Before(sessions[j].Start) })

	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		start, end := session.Start.In(loc), session.End.In(loc)
		rows = append(rows, []string{
			start.Format("Mon 2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			titles[session.ExamID],
			session.Title,
			session.SlotLabel,
			session.Reason,
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Study plan generated %s (%s)", proposal.GeneratedAt.In(loc).Format("2006-01-02 15:04"), loc.String()),
		Headers: []string{"Date", "Start", "End", "Exam", "Session", "Slot", "Reason"},
		Rows:    rows,
	}
}
