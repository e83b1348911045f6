package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/dto"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type calendarRepoStub struct {
	events  []models.CalendarEvent
	err     error
	filters []models.CalendarFilter
}

func (s *calendarRepoStub) ListOverlapping(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	s.filters = append(s.filters, filter)
	return s.events, s.err
}

type preferenceResolverStub struct {
	prefs *dto.PlannerPreferences
	err   error
}

func (s preferenceResolverStub) Get(ctx context.Context, userID string) (*dto.PlannerPreferences, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.prefs != nil {
		return s.prefs, nil
	}
	return testDefaults().withFallbacks().preferences(), nil
}

// gatedSessionRepo holds ListOverlapping calls made inside a transaction until released.
type gatedSessionRepo struct {
	*sessionRepoStub
	entered chan struct{}
	release chan struct{}
}

func (r *gatedSessionRepo) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, userID string, from, to time.Time) ([]models.StudySession, error) {
	if exec != nil && r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	return r.sessionRepoStub.ListOverlapping(ctx, exec, userID, from, to)
}

type planFixture struct {
	svc      *StudyPlanService
	clock    *fakeClock
	exams    *examRepoStub
	sessions *sessionRepoStub
	calendar *calendarRepoStub
	metrics  *MetricsService
}

// Monday 2025-03-03 08:00 UTC; the sample exam is due two weeks later at 09:00.
func newPlanFixture(t *testing.T, tx txProvider, exams ...models.Exam) *planFixture {
	t.Helper()
	f := &planFixture{
		clock:    &fakeClock{now: time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)},
		exams:    newExamRepoStub(exams...),
		sessions: newSessionRepoStub(),
		calendar: &calendarRepoStub{},
		metrics:  NewMetricsService(),
	}
	f.svc = NewStudyPlanService(f.exams, f.sessions, f.calendar, preferenceResolverStub{}, tx, f.metrics, nil, nil, StudyPlanConfig{
		Defaults: PlannerDefaults{Location: time.UTC, ProposalTTL: 15 * time.Minute},
		Clock:    f.clock.Now,
	})
	return f
}

func TestStudyPlanPreviewPlacesSessions(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))

	resp, err := f.svc.Preview(context.Background(), "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 2)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Equal(t, f.clock.now.Add(15*time.Minute), resp.ExpiresAt)
	assert.Equal(t, 2, resp.Requested)
	assert.Equal(t, 2, resp.Placed)

	first := resp.Sessions[0]
	assert.Equal(t, time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC), first.Start)
	assert.Equal(t, time.Date(2025, 3, 16, 10, 30, 0, 0, time.UTC), first.End)
	assert.Equal(t, "weekend-morning", first.SlotLabel)
	assert.Equal(t, "Before Calculus midterm (1 days)", first.Reason)
	assert.Equal(t, time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC), resp.Sessions[1].Start)

	require.Len(t, resp.Report, 1)
	assert.Equal(t, "Calculus midterm", resp.Report[0].Title)

	require.Len(t, f.calendar.filters, 1)
	assert.Equal(t, f.clock.now, f.calendar.filters[0].From)
	assert.Equal(t, sampleExam("exam-1").DueDate, f.calendar.filters[0].To)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.planRuns.WithLabelValues(PlanResultOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.planPlaced))
}

func TestStudyPlanPreviewAvoidsBusyTime(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))
	f.calendar.events = []models.CalendarEvent{{
		ID:        "evt-1",
		Title:     "Family brunch",
		StartTime: time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2025, 3, 16, 11, 0, 0, 0, time.UTC),
	}}
	f.sessions.overlaps = []models.StudySession{{
		ID:             "s-9",
		ScheduledStart: time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
	}}

	resp, err := f.svc.Preview(context.Background(), "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC), resp.Sessions[0].Start)
	assert.Equal(t, 2, resp.Sessions[0].DaysBefore)
	assert.Equal(t, time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC), resp.Sessions[1].Start)
	assert.Equal(t, "morning", resp.Sessions[1].SlotLabel)
}

func TestStudyPlanPreviewRequestOverrides(t *testing.T) {
	exam := sampleExam("exam-1")
	f := newPlanFixture(t, nil, exam)

	resp, err := f.svc.Preview(context.Background(), "user-1", dto.PlanPreviewRequest{
		PreferredSlots:       []models.PreferredSlot{{StartHour: 6, EndHour: 8, Label: "dawn"}},
		Intervals:            []int{2},
		SessionDurationHours: floatPtr(1),
		Timezone:             "Asia/Jakarta",
		SubjectOverrides:     map[string]dto.SubjectOverrideRequest{"Math": {EstimatedHours: floatPtr(1)}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	start := resp.Sessions[0].Start.In(jakarta)
	assert.Equal(t, 6, start.Hour())
	assert.Equal(t, 15, start.Day())
	assert.Equal(t, "dawn", resp.Sessions[0].SlotLabel)
}

func TestStudyPlanPreviewReportsPastDue(t *testing.T) {
	past := sampleExam("exam-old")
	past.DueDate = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f := newPlanFixture(t, nil, past)

	resp, err := f.svc.Preview(context.Background(), "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Sessions)
	require.Len(t, resp.Report, 1)
	assert.True(t, resp.Report[0].PastDue)
	assert.Empty(t, f.calendar.filters)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.planRuns.WithLabelValues(PlanResultEmpty)))
}

func TestStudyPlanPreviewErrors(t *testing.T) {
	cases := []struct {
		name   string
		req    dto.PlanPreviewRequest
		status int
	}{
		{name: "unknown exam", req: dto.PlanPreviewRequest{ExamIDs: []string{"exam-404"}}, status: http.StatusNotFound},
		{name: "unknown timezone", req: dto.PlanPreviewRequest{Timezone: "Mars/Olympus"}, status: http.StatusBadRequest},
		{name: "negative interval", req: dto.PlanPreviewRequest{Intervals: []int{-1}}, status: http.StatusBadRequest},
		{name: "session longer than slots", req: dto.PlanPreviewRequest{SessionDurationHours: floatPtr(5)}, status: http.StatusUnprocessableEntity},
		{name: "inverted slot", req: dto.PlanPreviewRequest{PreferredSlots: []models.PreferredSlot{{StartHour: 10, EndHour: 9}}}, status: http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPlanFixture(t, nil, sampleExam("exam-1"))
			_, err := f.svc.Preview(context.Background(), "user-1", tc.req)
			requireAppError(t, err, tc.status)
		})
	}
}

func TestStudyPlanPreviewCalendarFailure(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))
	f.calendar.err = errors.New("timeout")
	_, err := f.svc.Preview(context.Background(), "user-1", dto.PlanPreviewRequest{})
	requireAppError(t, err, http.StatusInternalServerError)
}

func TestStudyPlanAcceptPersistsSelection(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	chosen := preview.Sessions[1]

	resp, err := f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID, SessionIDs: []string{chosen.ID, chosen.ID}})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	stored := resp.Sessions[0]
	assert.Equal(t, "exam-1", stored.ExamID)
	assert.Equal(t, chosen.Reason, stored.Notes)
	assert.True(t, stored.ScheduledStart.Equal(chosen.Start))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.planAccepted))
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID})
	requireAppError(t, err, http.StatusNotFound)
}

func TestStudyPlanAcceptDetectsConflicts(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)

	f.sessions.overlaps = []models.StudySession{{
		ID:             "manual-1",
		ScheduledStart: preview.Sessions[0].Start.Add(30 * time.Minute),
		ScheduledEnd:   preview.Sessions[0].End.Add(30 * time.Minute),
	}}
	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID})
	requireAppError(t, err, http.StatusConflict)
	assert.Empty(t, f.sessions.created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanAcceptRetriesAfterConflict(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	require.Len(t, preview.Sessions, 2)

	f.sessions.overlaps = []models.StudySession{{ID: "manual-1", ScheduledStart: preview.Sessions[0].Start, ScheduledEnd: preview.Sessions[0].End}}
	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID})
	requireAppError(t, err, http.StatusConflict)

	_, err = f.svc.Proposal(ctx, "user-1", preview.ProposalID)
	require.NoError(t, err)

	f.sessions.overlaps = nil
	resp, err := f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID, SessionIDs: []string{preview.Sessions[1].ID}})
	require.NoError(t, err)
	assert.Len(t, resp.Sessions, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanAcceptConcurrentSameProposal(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	repo := &gatedSessionRepo{sessionRepoStub: f.sessions}
	f.svc = NewStudyPlanService(f.exams, repo, f.calendar, preferenceResolverStub{}, tx, f.metrics, nil, nil, StudyPlanConfig{
		Defaults: PlannerDefaults{Location: time.UTC, ProposalTTL: 15 * time.Minute},
		Clock:    f.clock.Now,
	})
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	require.Len(t, preview.Sessions, 2)

	repo.entered = make(chan struct{})
	repo.release = make(chan struct{})
	req := dto.AcceptPlanRequest{ProposalID: preview.ProposalID}
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Accept(ctx, "user-1", req)
		first <- err
	}()
	<-repo.entered

	_, err = f.svc.Accept(ctx, "user-1", req)
	requireAppError(t, err, http.StatusNotFound)

	close(repo.release)
	require.NoError(t, <-first)
	assert.Len(t, f.sessions.created, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanAcceptRejectsForeignOrUnknown(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, "user-2", dto.AcceptPlanRequest{ProposalID: preview.ProposalID})
	requireAppError(t, err, http.StatusNotFound)

	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID, SessionIDs: []string{"session-bogus-1"}})
	requireAppError(t, err, http.StatusBadRequest)

	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{})
	requireAppError(t, err, http.StatusBadRequest)
}

func TestStudyPlanAcceptExpiredProposal(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	f := newPlanFixture(t, tx, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)

	f.clock.Advance(16 * time.Minute)
	_, err = f.svc.Accept(ctx, "user-1", dto.AcceptPlanRequest{ProposalID: preview.ProposalID})
	appErr := requireAppError(t, err, http.StatusNotFound)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudyPlanExportCSV(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))
	ctx := context.Background()

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)

	out, err := f.svc.Export(ctx, "user-1", preview.ProposalID, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)
	assert.True(t, strings.HasPrefix(out.Filename, "study-plan-2025-03-03"))
	assert.True(t, strings.HasSuffix(out.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(out.Payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Start,End,Exam,Session,Slot,Reason", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Fri 2025-03-14,18:00,19:30,Calculus midterm,"))
}

func TestStudyPlanExportErrors(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))
	ctx := context.Background()

	_, err := f.svc.Export(ctx, "user-1", "missing", "pdf")
	requireAppError(t, err, http.StatusNotFound)

	preview, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	_, err = f.svc.Export(ctx, "user-1", preview.ProposalID, "xlsx")
	requireAppError(t, err, http.StatusBadRequest)
}

func TestStudyPlanPurgeExpired(t *testing.T) {
	f := newPlanFixture(t, nil, sampleExam("exam-1"))
	ctx := context.Background()

	_, err := f.svc.Preview(ctx, "user-1", dto.PlanPreviewRequest{})
	require.NoError(t, err)
	require.Equal(t, 1, f.svc.store.Len())

	f.clock.Advance(time.Hour)
	require.NoError(t, f.svc.PurgeExpired(ctx))
	assert.Zero(t, f.svc.store.Len())
}
