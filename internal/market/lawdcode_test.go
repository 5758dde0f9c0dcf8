package market

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"auction-analyzer/backend/internal/logging"
	"auction-analyzer/backend/pkg/models"
)

func TestLawdCode(t *testing.T) {
	cases := map[string]string{
		"서울특별시 강남구 역삼동 123-4": "11680",
		"서울 중구 을지로 100":       "11140",
		"서울특별시 중랑구 면목동 1":     "11260",
		"경기도 성남시 분당구 정자동 10":  "41135",
		"부산광역시 해운대구 우동 1408":  "26350",
		"송파구 잠실동 40":          "11710",
		"세종특별자치시 한누리대로 2130":  "36110",
	}
	for addr, want := range cases {
		got, ok := LawdCode(addr)
		assert.True(t, ok, addr)
		assert.Equal(t, want, got, addr)
	}

	_, ok := LawdCode("제주특별자치도 제주시 연동")
	assert.False(t, ok)
	_, ok = LawdCode("  ")
	assert.False(t, ok)
}

func TestResolveKindAndEndpoint(t *testing.T) {
	assert.Equal(t, KindApartment, ResolveKind("아파트"))
	assert.Equal(t, KindRowHouse, ResolveKind("다세대주택"))
	assert.Equal(t, KindDetached, ResolveKind("단독주택"))
	assert.Equal(t, KindOfficetel, ResolveKind("오피스텔"))
	assert.Equal(t, KindApartment, ResolveKind("근린생활시설"))

	path, ok := KindOfficetel.Endpoint(DealRent)
	assert.True(t, ok)
	assert.Equal(t, "/RTMSDataSvcOffiRent/getRTMSDataSvcOffiRent", path)
	_, ok = Kind("land").Endpoint(DealTrade)
	assert.False(t, ok)
}

func TestGuessBuildingName(t *testing.T) {
	assert.Equal(t, "래미안대치팰리스", GuessBuildingName("서울특별시 강남구 대치동 래미안대치팰리스 101동"))
	assert.Equal(t, "", GuessBuildingName("서울특별시 강남구 역삼동 123"))
}

func TestYearMonths(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"202403", "202402", "202401", "202312"}, YearMonths(now, 4))
}

type fakeSource struct {
	calls atomic.Int32
}

func (f *fakeSource) Trades(ctx context.Context, lawdCode, ym string, kind Kind) ([]models.Transaction, error) {
	f.calls.Add(1)
	if ym == "202402" {
		return nil, errors.New("503")
	}
	return []models.Transaction{{Amount: 1, Year: 2024, Month: 1, Day: 1}}, nil
}

func (f *fakeSource) Rents(ctx context.Context, lawdCode, ym string, kind Kind) ([]models.RentTransaction, error) {
	f.calls.Add(1)
	return []models.RentTransaction{{Deposit: 5}}, nil
}

func TestCollector_SkipsFailedMonths(t *testing.T) {
	src := &fakeSource{}
	c := NewCollector(src, 3, 2, logging.NewNop())
	c.now = func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) }

	trades, rents := c.Collect(context.Background(), "11680", KindApartment)

	assert.Len(t, trades, 2)
	assert.Len(t, rents, 2)
	assert.Equal(t, int32(5), src.calls.Load())
}
