package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"auction-analyzer/backend/internal/market"
	"auction-analyzer/backend/pkg/models"
)

// MolitClient reads the MOLIT real-transaction data service.
type MolitClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewMolitClient creates a new MolitClient.
func NewMolitClient(baseURL, apiKey string) *MolitClient {
	return &MolitClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type molitResponse struct {
	Header struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Items []molitItem `xml:"body>items>item"`
}

type molitItem struct {
	AptName      string `xml:"aptNm"`
	RowHouseName string `xml:"mhouseNm"`
	OffiName     string `xml:"offiNm"`
	DealAmount   string `xml:"dealAmount"`
	DealYear     string `xml:"dealYear"`
	DealMonth    string `xml:"dealMonth"`
	DealDay      string `xml:"dealDay"`
	ExclusiveAr  string `xml:"excluUseAr"`
	TotalFloorAr string `xml:"totalFloorAr"`
	Dong         string `xml:"umdNm"`
	Deposit      string `xml:"deposit"`
	MonthlyRent  string `xml:"monthlyRent"`
	ContractType string `xml:"contractType"`
}

// manwon parses an amount in units of 10,000 KRW, e.g. "82,500".
func manwon(s string) int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v * 10_000
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func (it molitItem) transaction() models.Transaction {
	area, _ := strconv.ParseFloat(strings.TrimSpace(it.ExclusiveAr), 64)
	if area == 0 {
		area, _ = strconv.ParseFloat(strings.TrimSpace(it.TotalFloorAr), 64)
	}
	name := it.AptName
	if name == "" {
		name = it.RowHouseName
	}
	if name == "" {
		name = it.OffiName
	}
	return models.Transaction{
		Amount:       manwon(it.DealAmount),
		Area:         area,
		Year:         atoi(it.DealYear),
		Month:        atoi(it.DealMonth),
		Day:          atoi(it.DealDay),
		BuildingName: strings.TrimSpace(name),
		District:     strings.TrimSpace(it.Dong),
	}
}

// parseMolitXML decodes a data-service response.
func parseMolitXML(body []byte) ([]molitItem, error) {
	var resp molitResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode molit response: %w", err)
	}
	if code := resp.Header.ResultCode; code != "" && code != "00" && code != "000" {
		return nil, fmt.Errorf("molit error %s: %s", code, resp.Header.ResultMsg)
	}
	return resp.Items, nil
}

func (c *MolitClient) fetch(ctx context.Context, kind market.Kind, deal market.Deal, lawdCode, yearMonth string) ([]molitItem, error) {
	path, ok := kind.Endpoint(deal)
	if !ok {
		return nil, fmt.Errorf("unsupported property kind %q for %s", kind, deal)
	}

	key, err := url.QueryUnescape(c.apiKey)
	if err != nil {
		key = c.apiKey
	}
	q := url.Values{}
	q.Set("serviceKey", key)
	q.Set("LAWD_CD", lawdCode)
	q.Set("DEAL_YMD", yearMonth)
	q.Set("pageNo", "1")
	q.Set("numOfRows", "1000")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch transactions: status code %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return parseMolitXML(body)
}

// Trades returns the sales recorded in a district for a YYYYMM month.
func (c *MolitClient) Trades(ctx context.Context, lawdCode, yearMonth string, kind market.Kind) ([]models.Transaction, error) {
	items, err := c.fetch(ctx, kind, market.DealTrade, lawdCode, yearMonth)
	if err != nil {
		return nil, err
	}
	out := make([]models.Transaction, 0, len(items))
	for _, it := range items {
		out = append(out, it.transaction())
	}
	return out, nil
}

// Rents returns the leases recorded in a district for a YYYYMM month. The
// deposit doubles as the record amount.
func (c *MolitClient) Rents(ctx context.Context, lawdCode, yearMonth string, kind market.Kind) ([]models.RentTransaction, error) {
	items, err := c.fetch(ctx, kind, market.DealRent, lawdCode, yearMonth)
	if err != nil {
		return nil, err
	}
	out := make([]models.RentTransaction, 0, len(items))
	for _, it := range items {
		r := models.RentTransaction{
			Transaction:  it.transaction(),
			Deposit:      manwon(it.Deposit),
			MonthlyRent:  manwon(it.MonthlyRent),
			ContractType: strings.TrimSpace(it.ContractType),
		}
		r.Amount = r.Deposit
		out = append(out, r)
	}
	return out, nil
}
