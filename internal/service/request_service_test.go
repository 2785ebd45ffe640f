package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/audit"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/notify"
	"github.com/spec-kit/crm-core/internal/sla"
	"github.com/spec-kit/crm-core/internal/store"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

var testActor = domain.Actor{ID: "admin", Name: "Administrator"}

type requestFixture struct {
	svc      *RequestService
	requests *store.RequestStore
	recorder *audit.Recorder
	center   *notify.Center
	now      time.Time
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	logger := zap.NewNop()

	requests := store.NewRequestStore()
	requests.Clock = func() time.Time { return now }
	recorder := audit.NewRecorder(audit.NewMemoryLog(), logger)
	center := notify.NewCenter(notify.NewMemoryFeed(), logger)

	svc := NewRequestService(RequestDependencies{
		Requests: requests,
		Recorder: recorder,
		Center:   center,
		Policy:   sla.DefaultPolicy(),
		Logger:   logger,
	})
	svc.Clock = func() time.Time { return now }

	return &requestFixture{svc: svc, requests: requests, recorder: recorder, center: center, now: now}
}

func (f *requestFixture) create(t *testing.T, priority domain.RequestPriority) *domain.ClientRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), testActor, CreateInput{
		Title:          "Printer on fire",
		Description:    "Smoke coming out of tray two",
		Priority:       priority,
		RequesterName:  "Dana Cole",
		RequesterEmail: "dana@example.com",
	})
	require.NoError(t, err)
	return req
}

func (f *requestFixture) auditEntries(t *testing.T, entityID string) []domain.AuditLogEntry {
	t.Helper()
	page, err := f.recorder.List(context.Background(), EntityTypeRequest, entityID, 1, 100)
	require.NoError(t, err)
	return page.Logs
}

func TestCreateAnchorsSLAOnCreation(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityUrgent)

	require.NotNil(t, req.SLA)
	assert.Equal(t, f.now.Add(4*time.Hour), req.SLA.DueAt)
	assert.False(t, req.SLA.Breached)
	assert.Equal(t, domain.StatusNew, req.Status)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionCreate, entries[0].Action)
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	f := newRequestFixture(t)
	_, err := f.svc.Create(context.Background(), testActor, CreateInput{Title: "   "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSetStatusClosedIsTerminal(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)
	_, err := f.svc.SetStatus(context.Background(), testActor, req.ID, domain.StatusClosed)
	require.NoError(t, err)

	entriesBefore := len(f.auditEntries(t, req.ID))

	for _, target := range []domain.RequestStatus{domain.StatusOpen, domain.StatusResolved, domain.StatusClosed} {
		_, err := f.svc.SetStatus(context.Background(), testActor, req.ID, target)
		require.Error(t, err, "target %s", target)
		assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)
	}

	// rejected transitions leave no trace
	assert.Len(t, f.auditEntries(t, req.ID), entriesBefore)
	got, err := f.svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
}

func TestReopenOnlyFromClosed(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)

	_, err := f.svc.Reopen(context.Background(), testActor, req.ID)
	require.Error(t, err)
	assert.Equal(t, "INVALID_TRANSITION", apperrors.ToDomainError(err).Code)

	_, err = f.svc.SetStatus(context.Background(), testActor, req.ID, domain.StatusClosed)
	require.NoError(t, err)

	reopened, err := f.svc.Reopen(context.Background(), testActor, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, reopened.Status)

	entries := f.auditEntries(t, req.ID)
	require.NotEmpty(t, entries)
	require.NotNil(t, entries[0].Metadata)
	assert.Equal(t, "reopen", entries[0].Metadata.Source)
}

func TestReassignSamePersonStillRecords(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)

	_, err := f.svc.SetAssignee(context.Background(), testActor, req.ID, "u1", "Avery")
	require.NoError(t, err)
	_, err = f.svc.SetAssignee(context.Background(), testActor, req.ID, "u1", "Avery")
	require.NoError(t, err)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 3) // create + two assigns

	// the repeat assignment changed nothing, yet the act is on record
	require.NotNil(t, entries[0].Diff)
	assert.Empty(t, entries[0].Diff.Changed)
	assert.ElementsMatch(t, []string{"assigneeId", "assigneeName"}, entries[1].Diff.Changed)
}

func TestBulkAssignIsolatesFailures(t *testing.T) {
	f := newRequestFixture(t)
	a := f.create(t, domain.PriorityNormal)
	b := f.create(t, domain.PriorityNormal)

	results := f.svc.BulkAssign(context.Background(), testActor, []string{a.ID, "missing", b.ID}, "u1", "Avery")
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.True(t, apperrors.IsNotFound(results[1].Err))
	assert.NoError(t, results[2].Err)

	// one audit entry per successful assignment
	assert.Len(t, f.auditEntries(t, a.ID), 2)
	assert.Len(t, f.auditEntries(t, b.ID), 2)
}

func TestSetPriorityRecomputesDeadline(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityLow)

	updated, err := f.svc.SetPriority(context.Background(), testActor, req.ID, domain.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, req.CreatedAt.Add(24*time.Hour), updated.SLA.DueAt)
	assert.False(t, updated.SLA.Breached)
}

func TestSetPriorityBreachesImmediatelyWhenDuePast(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityLow)

	// six hours later the urgent window (4h from creation) is already gone
	f.svc.Clock = func() time.Time { return f.now.Add(6 * time.Hour) }
	updated, err := f.svc.SetPriority(context.Background(), testActor, req.ID, domain.PriorityUrgent)
	require.NoError(t, err)
	assert.True(t, updated.SLA.Breached)
}

func TestSetPriorityClearsBreachWhenDueFuture(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityUrgent)

	f.svc.Clock = func() time.Time { return f.now.Add(6 * time.Hour) }
	breached, err := f.svc.SetPriority(context.Background(), testActor, req.ID, domain.PriorityUrgent)
	require.NoError(t, err)
	require.True(t, breached.SLA.Breached)

	cleared, err := f.svc.SetPriority(context.Background(), testActor, req.ID, domain.PriorityLow)
	require.NoError(t, err)
	assert.False(t, cleared.SLA.Breached)
	assert.Equal(t, req.CreatedAt.Add(168*time.Hour), cleared.SLA.DueAt)
}

func TestEscalateRaisesToUrgent(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityLow)

	updated, err := f.svc.Escalate(context.Background(), testActor, req.ID, "customer threatened churn")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityUrgent, updated.Priority)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionEscalate, entries[0].Action)
	require.NotNil(t, entries[0].Metadata)
	assert.Equal(t, "customer threatened churn", entries[0].Metadata.Source)
}

func TestAddTagsIgnoresDuplicates(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)

	first, err := f.svc.AddTags(context.Background(), testActor, req.ID, []string{"vip", "hardware", "vip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "hardware"}, first.Tags)

	second, err := f.svc.AddTags(context.Background(), testActor, req.ID, []string{"vip"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vip", "hardware"}, second.Tags)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"tags"}, entries[1].Diff.Changed)
	assert.Empty(t, entries[0].Diff.Changed)
}

func TestRemoveAbsentTagSucceedsWithEmptyDiff(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)

	updated, err := f.svc.RemoveTag(context.Background(), testActor, req.ID, "nope")
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Diff.Changed)
}

func TestAddReplyAndInternalNote(t *testing.T) {
	f := newRequestFixture(t)
	req := f.create(t, domain.PriorityNormal)

	_, err := f.svc.AddReply(context.Background(), testActor, req.ID, "We are on it.")
	require.NoError(t, err)
	updated, err := f.svc.AddInternalNote(context.Background(), testActor, req.ID, "Swap the fuser unit.")
	require.NoError(t, err)

	require.Len(t, updated.Replies, 2)
	assert.False(t, updated.Replies[0].IsInternal)
	assert.True(t, updated.Replies[1].IsInternal)

	_, err = f.svc.AddReply(context.Background(), testActor, req.ID, "   ")
	require.Error(t, err)
}

func TestMutationsOnMissingRequest(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, testActor, "ghost", domain.StatusOpen)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.SetPriority(ctx, testActor, "ghost", domain.PriorityHigh)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.AddTags(ctx, testActor, "ghost", []string{"x"})
	assert.True(t, apperrors.IsNotFound(err))
}
