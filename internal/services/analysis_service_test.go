package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"auction-analyzer/backend/internal/logging"
	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

// MockAnalysisStore is a mock implementation of the AnalysisStore interface.
type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) Create(ctx context.Context, a *models.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnalysisStore) Get(ctx context.Context, owner, id string) (*models.Analysis, error) {
	args := m.Called(ctx, owner, id)
	a, _ := args.Get(0).(*models.Analysis)
	return a, args.Error(1)
}

func (m *MockAnalysisStore) List(ctx context.Context, owner string, limit int) ([]*models.Analysis, error) {
	args := m.Called(ctx, owner, limit)
	list, _ := args.Get(0).([]*models.Analysis)
	return list, args.Error(1)
}

func (m *MockAnalysisStore) MarkRunning(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAnalysisStore) SaveResult(ctx context.Context, a *models.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnalysisStore) Delete(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

type executorFunc func(ctx context.Context, initial workflow.State) workflow.State

func (f executorFunc) Execute(ctx context.Context, initial workflow.State) workflow.State {
	return f(ctx, initial)
}

func finishedRun(ctx context.Context, s workflow.State) workflow.State {
	return s.Merge(workflow.Update{
		SaleItem: &models.SaleItem{CaseNumber: "2024타경100"},
		Rights:   &models.RightsAnalysis{RiskLevel: models.RiskLow},
		Valuation: &models.Valuation{
			Recommendation: models.Recommend,
			ExpectedROI:    18.8,
		},
		Report: &models.Report{Recommendation: models.Recommend},
		Errors: []string{"news_analysis failed: no news"},
	})
}

func TestAnalysisService_Create(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		return a.Owner == "kim@example.com" && a.Status == models.AnalysisPending && len(a.FilePaths) == 2
	})).Return(nil)

	svc := NewAnalysisService(store, nil, nil, logging.NewNop())
	a, err := svc.Create(context.Background(), "kim@example.com", []string{"a.pdf", "b.pdf"})

	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())
	store.AssertExpectations(t)
}

func TestAnalysisService_CreateError(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := NewAnalysisService(store, nil, nil, logging.NewNop()).Create(context.Background(), "o", nil)
	assert.ErrorContains(t, err, "connection refused")
}

func TestAnalysisService_Execute(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("MarkRunning", mock.Anything, "id-1").Return(nil)
	var saved *models.Analysis
	store.On("SaveResult", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.Analysis)
	}).Return(nil)

	var events []workflow.Event
	notifier := workflow.NotifierFunc(func(_ context.Context, ev workflow.Event) { events = append(events, ev) })
	var seen workflow.State
	exec := executorFunc(func(ctx context.Context, s workflow.State) workflow.State {
		seen = s
		return finishedRun(ctx, s)
	})

	svc := NewAnalysisService(store, exec, notifier, logging.NewNop())
	in := &models.Analysis{ID: "id-1", Owner: "kim@example.com", Status: models.AnalysisPending, FilePaths: []string{"a.pdf"}}
	out, err := svc.Execute(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "id-1", seen.AnalysisID)
	assert.Equal(t, []string{"a.pdf"}, seen.FilePaths)

	assert.Equal(t, models.AnalysisDone, out.Status)
	assert.Equal(t, "2024타경100", out.CaseNumber)
	assert.Equal(t, "recommend", out.Recommendation)
	assert.Equal(t, "low", out.RiskLevel)
	require.NotNil(t, out.ExpectedROI)
	assert.Equal(t, 18.8, *out.ExpectedROI)
	assert.Equal(t, []string{"news_analysis failed: no news"}, out.Errors)
	assert.NotNil(t, out.StartedAt)
	assert.NotNil(t, out.CompletedAt)
	assert.JSONEq(t, `{"sale_item":{"case_number":"2024타경100","property_address":"","occupancy_info":null}}`, string(out.Documents))
	assert.Empty(t, out.Market)
	assert.Same(t, out, saved)
	assert.Equal(t, models.AnalysisPending, in.Status, "input record is not modified")

	require.Len(t, events, 1)
	assert.Equal(t, workflow.StageComplete, events[0].Stage)
	assert.Equal(t, workflow.StatusDone, events[0].Status)
	store.AssertExpectations(t)
}

func TestRecord_NoReportIsError(t *testing.T) {
	final := workflow.NewState("id-2", nil).Merge(workflow.Update{Errors: []string{"report_generator failed: boom"}})

	out, err := Record(&models.Analysis{ID: "id-2"}, final)

	require.NoError(t, err)
	assert.Equal(t, models.AnalysisError, out.Status)
	assert.Nil(t, out.Documents)
	assert.Nil(t, out.ExpectedROI)
}

type eventLog struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (l *eventLog) Notify(_ context.Context, ev workflow.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func TestAnalysisService_ExecuteStoreErrors(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("MarkRunning", mock.Anything, "gone").Return(repository.ErrNotFound)
	events := &eventLog{}

	called := false
	exec := executorFunc(func(ctx context.Context, s workflow.State) workflow.State { called = true; return s })

	_, err := NewAnalysisService(store, exec, events, logging.NewNop()).Execute(context.Background(), &models.Analysis{ID: "gone"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, called)
	store.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)

	require.Len(t, events.events, 1)
	assert.Equal(t, workflow.StageComplete, events.events[0].Stage)
	assert.Equal(t, workflow.StatusError, events.events[0].Status)
}

func TestAnalysisService_MarkRunningFailureMarksRecordFailed(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("MarkRunning", mock.Anything, "id-2").Return(errors.New("connection reset"))
	var saved *models.Analysis
	store.On("SaveResult", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.Analysis)
	}).Return(nil)
	events := &eventLog{}

	exec := executorFunc(func(ctx context.Context, s workflow.State) workflow.State {
		t.Fatal("executor must not run")
		return s
	})
	svc := NewAnalysisService(store, exec, events, logging.NewNop())
	_, err := svc.Execute(context.Background(), &models.Analysis{ID: "id-2", Status: models.AnalysisPending})

	require.Error(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, models.AnalysisError, saved.Status)
	assert.Equal(t, []string{"failed to mark analysis running: connection reset"}, saved.Errors)
	assert.NotNil(t, saved.CompletedAt)

	require.Len(t, events.events, 1)
	assert.Equal(t, workflow.StatusError, events.events[0].Status)
	assert.Equal(t, "id-2", events.events[0].AnalysisID)
}

func TestAnalysisService_SaveFailureStillCompletes(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("MarkRunning", mock.Anything, "id-3").Return(nil)
	store.On("SaveResult", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		return a.Status == models.AnalysisDone
	})).Return(errors.New("value too long")).Once()
	var fallback *models.Analysis
	store.On("SaveResult", mock.Anything, mock.MatchedBy(func(a *models.Analysis) bool {
		return a.Status == models.AnalysisError
	})).Run(func(args mock.Arguments) {
		fallback = args.Get(1).(*models.Analysis)
	}).Return(nil).Once()
	events := &eventLog{}

	svc := NewAnalysisService(store, executorFunc(finishedRun), events, logging.NewNop())
	_, err := svc.Execute(context.Background(), &models.Analysis{ID: "id-3"})

	require.Error(t, err)
	require.NotNil(t, fallback)
	assert.Empty(t, fallback.Report, "the failure record carries no partial results")
	assert.Equal(t, []string{"failed to save analysis result: value too long"}, fallback.Errors)

	require.Len(t, events.events, 1)
	assert.Equal(t, workflow.StageComplete, events.events[0].Stage)
	assert.Equal(t, workflow.StatusError, events.events[0].Status)
	store.AssertExpectations(t)
}

func TestAnalysisService_StartOutlivesRequest(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("MarkRunning", mock.Anything, "bg").Return(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	store.On("SaveResult", mock.Anything, mock.Anything).Run(func(mock.Arguments) { wg.Done() }).Return(nil)

	exec := executorFunc(func(ctx context.Context, s workflow.State) workflow.State {
		assert.NoError(t, ctx.Err())
		return finishedRun(ctx, s)
	})
	svc := NewAnalysisService(store, exec, nil, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx, &models.Analysis{ID: "bg"})
	cancel()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("background run did not finish")
	}
	store.AssertExpectations(t)
}
