package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-analyzer/backend/internal/market"
)

func TestInferenceClient_Complete(t *testing.T) {
	var payload messageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"ok\":"},{"type":"text","text":"true}"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	c := NewInferenceClient(server.URL+"/", "sk-test", "test-model", 0)
	out, err := c.Complete(context.Background(), "classify this", 200)

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "test-model", payload.Model)
	assert.Equal(t, 200, payload.MaxTokens)
	require.Len(t, payload.Messages, 1)
	assert.Equal(t, "user", payload.Messages[0].Role)
	assert.Equal(t, "classify this", payload.Messages[0].Content)
}

func TestInferenceClient_StatusErrors(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:       ErrUnauthorized,
		http.StatusTooManyRequests:    ErrRateLimited,
		http.StatusServiceUnavailable: ErrUnavailable,
	}
	for status, want := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := NewInferenceClient(server.URL, "k", "m", 0).Complete(context.Background(), "p", 10)
		assert.ErrorIs(t, err, want)
		server.Close()
	}
}

const molitTradeXML = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header><resultCode>000</resultCode><resultMsg>OK</resultMsg></header>
  <body><items>
    <item><aptNm>은마</aptNm><dealAmount>   215,000</dealAmount><dealYear>2024</dealYear><dealMonth>3</dealMonth><dealDay>9</dealDay><excluUseAr>84.43</excluUseAr><umdNm>대치동</umdNm></item>
    <item><aptNm>래미안대치팰리스</aptNm><dealAmount>330,000</dealAmount><dealYear>2024</dealYear><dealMonth>3</dealMonth><dealDay>21</dealDay><excluUseAr>84.97</excluUseAr><umdNm>대치동</umdNm></item>
  </items></body>
</response>`

const molitRentXML = `<response><header><resultCode>000</resultCode></header><body><items>
<item><aptNm>은마</aptNm><deposit>80,000</deposit><monthlyRent>0</monthlyRent><dealYear>2024</dealYear><dealMonth>2</dealMonth><dealDay>1</dealDay><excluUseAr>76.79</excluUseAr><umdNm>대치동</umdNm><contractType>신규</contractType></item>
</items></body></response>`

func TestMolitClient_Trades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade", r.URL.Path)
		assert.Equal(t, "11680", r.URL.Query().Get("LAWD_CD"))
		assert.Equal(t, "202403", r.URL.Query().Get("DEAL_YMD"))
		assert.Equal(t, "a+b/c=", r.URL.Query().Get("serviceKey"))
		_, _ = w.Write([]byte(molitTradeXML))
	}))
	defer server.Close()

	c := NewMolitClient(server.URL, "a%2Bb%2Fc%3D")
	got, err := c.Trades(context.Background(), "11680", "202403", market.KindApartment)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2_150_000_000), got[0].Amount)
	assert.Equal(t, 84.43, got[0].Area)
	assert.Equal(t, "2024-03-09", got[0].Date())
	assert.Equal(t, "은마", got[0].BuildingName)
	assert.Equal(t, "대치동", got[0].District)
}

func TestMolitClient_Rents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/RTMSDataSvcAptRent/getRTMSDataSvcAptRent", r.URL.Path)
		_, _ = w.Write([]byte(molitRentXML))
	}))
	defer server.Close()

	got, err := NewMolitClient(server.URL, "k").Rents(context.Background(), "11680", "202402", market.KindApartment)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(800_000_000), got[0].Deposit)
	assert.Equal(t, int64(800_000_000), got[0].Amount)
	assert.Zero(t, got[0].MonthlyRent)
	assert.Equal(t, "신규", got[0].ContractType)
}

func TestMolitClient_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<response><header><resultCode>30</resultCode><resultMsg>SERVICE KEY IS NOT REGISTERED</resultMsg></header></response>`))
	}))
	defer server.Close()

	_, err := NewMolitClient(server.URL, "k").Trades(context.Background(), "11680", "202403", market.KindRowHouse)
	assert.ErrorContains(t, err, "SERVICE KEY IS NOT REGISTERED")

	_, err = NewMolitClient(server.URL, "k").Trades(context.Background(), "11680", "202403", market.Kind("land"))
	assert.ErrorContains(t, err, "unsupported property kind")
}

func TestNaverNewsClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search/news.json", r.URL.Path)
		assert.Equal(t, "강남구 부동산 시장", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("display"))
		assert.Equal(t, "id", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Naver-Client-Secret"))
		_, _ = w.Write([]byte(`{"items":[{"title":"<b>강남</b> 재건축","description":"d","link":"https://n.news/1","pubDate":"Mon, 04 Mar 2024 09:00:00 +0900"}]}`))
	}))
	defer server.Close()

	got, err := NewNaverNewsClient(server.URL, "id", "secret").Search(context.Background(), "강남구 부동산 시장", 10)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "<b>강남</b> 재건축", got[0].Title)
	assert.Equal(t, "https://n.news/1", got[0].Link)
}

func TestPDFExtractor_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.txt")
	require.NoError(t, os.WriteFile(path, []byte("등기사항전부증명서 (말소사항 포함) - 집합건물"), 0o600))

	text, tables, err := NewPDFExtractor().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Contains(t, text, "등기사항전부증명서")
	assert.Empty(t, tables)

	_, _, err = NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
