package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"auction-analyzer/backend/internal/auth"
	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/pkg/models"
)

const analysisID = "5f0c6b8e-2c1d-4f57-9a43-0d7c3c0b8a11"

// MockAnalysisService is a mock implementation of AnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Create(ctx context.Context, owner string, filePaths []string) (*models.Analysis, error) {
	args := m.Called(ctx, owner, filePaths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisService) Start(ctx context.Context, analysis *models.Analysis) {
	m.Called(ctx, analysis)
}

func (m *MockAnalysisService) Get(ctx context.Context, owner, id string) (*models.Analysis, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestStartAnalysis(t *testing.T) {
	svc := new(MockAnalysisService)
	s := NewServer(svc)
	ctx := auth.WithOwner(context.Background(), "kim@example.com")
	analysis := &models.Analysis{ID: analysisID, Status: models.AnalysisPending}

	svc.On("Create", mock.Anything, "kim@example.com", []string{"/data/registry.pdf", "/data/sale.txt"}).Return(analysis, nil)
	svc.On("Start", mock.Anything, analysis).Return()

	res, err := s.handleStartAnalysis(ctx, call("start_analysis", map[string]interface{}{
		"file_paths": []interface{}{"/data/registry.pdf", "/data/sale.txt"},
	}))

	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"id":"`+analysisID+`","status":"pending"}`, text(t, res))
	svc.AssertExpectations(t)
}

func TestStartAnalysisRejects(t *testing.T) {
	svc := new(MockAnalysisService)
	s := NewServer(svc)
	ctx := auth.WithOwner(context.Background(), "kim@example.com")

	cases := map[string]struct {
		ctx  context.Context
		args map[string]interface{}
	}{
		"no owner":      {context.Background(), map[string]interface{}{"file_paths": []interface{}{"/a.pdf"}}},
		"missing paths": {ctx, map[string]interface{}{}},
		"empty paths":   {ctx, map[string]interface{}{"file_paths": []interface{}{}}},
		"bad extension": {ctx, map[string]interface{}{"file_paths": []interface{}{"/a.hwp"}}},
		"non-string":    {ctx, map[string]interface{}{"file_paths": []interface{}{42}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := s.handleStartAnalysis(tc.ctx, call("start_analysis", tc.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAnalysis(t *testing.T) {
	svc := new(MockAnalysisService)
	s := NewServer(svc)
	ctx := auth.WithOwner(context.Background(), "kim@example.com")
	missing := "00000000-0000-4000-8000-000000000000"

	svc.On("Get", mock.Anything, "kim@example.com", analysisID).Return(&models.Analysis{ID: analysisID, Status: models.AnalysisDone, RiskLevel: "low"}, nil)
	svc.On("Get", mock.Anything, "kim@example.com", missing).Return(nil, repository.ErrNotFound)

	res, err := s.handleGetAnalysis(ctx, call("get_analysis", map[string]interface{}{"id": analysisID}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var got models.Analysis
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, models.AnalysisDone, got.Status)
	assert.Equal(t, "low", got.RiskLevel)

	res, err = s.handleGetAnalysis(ctx, call("get_analysis", map[string]interface{}{"id": missing}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Analysis not found", text(t, res))

	res, err = s.handleGetAnalysis(ctx, call("get_analysis", map[string]interface{}{"id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAcquisitionTax(t *testing.T) {
	s := NewServer(new(MockAnalysisService))

	res, err := s.handleAcquisitionTax(context.Background(), call("acquisition_tax", map[string]interface{}{
		"price":         float64(500_000_000),
		"property_type": "아파트",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got struct {
		Category       string `json:"category"`
		AcquisitionTax int64  `json:"acquisition_tax"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, "residential", got.Category)
	assert.Equal(t, int64(5_000_000), got.AcquisitionTax)

	res, err = s.handleAcquisitionTax(context.Background(), call("acquisition_tax", map[string]interface{}{
		"price":         float64(500_000_000),
		"property_type": "아파트",
		"houses":        float64(2),
	}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
	assert.Equal(t, int64(40_000_000), got.AcquisitionTax)

	res, err = s.handleAcquisitionTax(context.Background(), call("acquisition_tax", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestBidPriceRange(t *testing.T) {
	s := NewServer(new(MockAnalysisService))

	res, err := s.handleBidPriceRange(context.Background(), call("bid_price_range", map[string]interface{}{
		"market_value": float64(1_000_000_000),
		"deduction":    float64(50_000_000),
		"minimum_bid":  float64(640_000_000),
	}))

	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"conservative":640000000,"moderate":700000000,"aggressive":800000000}`, text(t, res))
}
