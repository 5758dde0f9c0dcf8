package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"auction-analyzer/backend/internal/auth"
	"auction-analyzer/backend/internal/repository"
	"auction-analyzer/backend/internal/valuation"
	"auction-analyzer/backend/pkg/models"
)

// AnalysisService is the analysis lifecycle exposed as tools.
type AnalysisService interface {
	Create(ctx context.Context, owner string, filePaths []string) (*models.Analysis, error)
	Start(ctx context.Context, analysis *models.Analysis)
	Get(ctx context.Context, owner, id string) (*models.Analysis, error)
}

type Server struct {
	mcpServer       *server.MCPServer
	analysisService AnalysisService
}

func NewServer(analysisService AnalysisService) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Auction Analyzer",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		analysisService: analysisService,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_analysis",
			mcp.WithDescription("Start analysing court-auction documents already stored on the server"),
			mcp.WithArray("file_paths", mcp.Required(),
				mcp.Description("Server paths of the .pdf or .txt documents"),
				mcp.Items(map[string]any{"type": "string"})),
		),
		s.handleStartAnalysis,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_analysis",
			mcp.WithDescription("Fetch the status and results of an analysis"),
			mcp.WithString("id", mcp.Required(), mcp.Description("The ID of the analysis")),
		),
		s.handleGetAnalysis,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"acquisition_tax",
			mcp.WithDescription("Compute the acquisition tax and fees for a purchase price in KRW"),
			mcp.WithNumber("price", mcp.Required(), mcp.Description("Purchase price in KRW")),
			mcp.WithString("property_type", mcp.Description("Property type, e.g. 아파트, 오피스텔, 상가, 토지")),
			mcp.WithNumber("houses", mcp.Description("Homes owned after the purchase, including this one")),
		),
		s.handleAcquisitionTax,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"bid_price_range",
			mcp.WithDescription("Compute the conservative, moderate and aggressive bid prices"),
			mcp.WithNumber("market_value", mcp.Required(), mcp.Description("Estimated market value in KRW")),
			mcp.WithNumber("deduction", mcp.Description("Assumed rights plus acquisition costs in KRW")),
			mcp.WithNumber("minimum_bid", mcp.Description("Court minimum bid in KRW")),
		),
		s.handleBidPriceRange,
	)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleStartAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := auth.OwnerFrom(ctx)
	if !ok {
		return mcp.NewToolResultError("Authentication required"), nil
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	raw, ok := args["file_paths"].([]interface{})
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("Missing required parameter: file_paths"), nil
	}

	paths := make([]string, 0, len(raw))
	for _, item := range raw {
		p, ok := item.(string)
		if !ok || p == "" {
			return mcp.NewToolResultError("file_paths must be non-empty strings"), nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".pdf", ".txt":
		default:
			return mcp.NewToolResultError(fmt.Sprintf("Unsupported file type: %s", p)), nil
		}
		paths = append(paths, p)
	}

	analysis, err := s.analysisService.Create(ctx, owner, paths)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start analysis: %v", err)), nil
	}
	s.analysisService.Start(ctx, analysis)

	return jsonResult(map[string]any{"id": analysis.ID, "status": analysis.Status})
}

func (s *Server) handleGetAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner, ok := auth.OwnerFrom(ctx)
	if !ok {
		return mcp.NewToolResultError("Authentication required"), nil
	}

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return mcp.NewToolResultError("Invalid analysis id"), nil
	}

	analysis, err := s.analysisService.Get(ctx, owner, id)
	if errors.Is(err, repository.ErrNotFound) {
		return mcp.NewToolResultError("Analysis not found"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get analysis: %v", err)), nil
	}

	return jsonResult(analysis)
}

func (s *Server) handleAcquisitionTax(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	price, ok := args["price"].(float64)
	if !ok || price <= 0 {
		return mcp.NewToolResultError("Missing required parameter: price"), nil
	}
	propertyType, _ := args["property_type"].(string)
	houses := 1
	if h, ok := args["houses"].(float64); ok && h >= 1 {
		houses = int(h)
	}

	category := valuation.CategoryOf(propertyType)
	costs := valuation.Costs(int64(price), category, houses, nil)

	return jsonResult(map[string]any{
		"category":         category,
		"acquisition_tax":  costs.AcquisitionTax,
		"registration_fee": costs.RegistrationFee,
		"legal_fee":        costs.LegalFee,
		"total":            costs.Total(),
	})
}

func (s *Server) handleBidPriceRange(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}
	marketValue, ok := args["market_value"].(float64)
	if !ok || marketValue <= 0 {
		return mcp.NewToolResultError("Missing required parameter: market_value"), nil
	}
	deduction, _ := args["deduction"].(float64)
	minimumBid, _ := args["minimum_bid"].(float64)

	return jsonResult(valuation.BidPriceRange(int64(marketValue), int64(deduction), int64(minimumBid)))
}

// MountHTTPHandlers serves the SSE transport under /mcp. wrap guards the
// endpoints, normally with the auth middleware.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer, wrap func(http.Handler) http.Handler) {
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))
	if wrap == nil {
		wrap = func(h http.Handler) http.Handler { return h }
	}
	handler := wrap(sseServer)

	mux.Handle("/mcp/sse", handler)
	mux.Handle("/mcp/message", handler)
}
