package stages

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"auction-analyzer/backend/pkg/models"
)

const classifyPrompt = `다음 PDF 문서의 텍스트를 보고, 문서 유형을 분류해주세요.

가능한 유형:
- registry: 등기부등본
- appraisal: 감정평가서
- sale_item: 매각물건명세서
- status_report: 현황조사보고서
- case_notice: 사건송달내역
- auction_summary: 등기, 감정, 매각 정보가 함께 담긴 경매 요약 자료

반드시 아래 JSON 형식으로만 응답해주세요 (다른 텍스트 없이):
{"document_type": "...", "confidence": 0.0}

문서 텍스트 (앞부분 2000자):
{{.Text}}
`

const registryPrompt = `다음 등기부등본 텍스트에서 아래 정보를 추출하여 JSON으로 반환해주세요.

추출 대상:
- property_address: 소재지 (문자열)
- property_type: 부동산 유형 (문자열)
- area: 전용면적 (㎡, 숫자만, 없으면 null)
- building_name: 건물명 또는 단지명 (문자열, 없으면 null)
- owner: 현 소유자 (문자열, 없으면 null)
- section_a_entries: 갑구 사항 목록 (배열, 각 항목은 아래 구조)
  - order: 순위번호 (정수)
  - right_type: 권리종류 (문자열)
  - holder: 권리자 (문자열)
  - amount: 채권액 (정수, 원 단위, 없으면 null)
  - registration_date: 접수일자 (문자열 YYYY-MM-DD, 없으면 null)
- section_b_entries: 을구 사항 목록 (갑구와 동일 구조)

반드시 JSON 형식으로만 응답해주세요 (다른 텍스트 없이).

문서 텍스트:
{{.Text}}
`

const appraisalPrompt = `다음 감정평가서 텍스트에서 아래 정보를 추출하여 JSON으로 반환해주세요.

추출 대상:
- appraised_value: 감정가 (정수, 원 단위)
- land_value: 토지 평가액 (정수, 원 단위, 없으면 null)
- building_value: 건물 평가액 (정수, 원 단위, 없으면 null)
- land_area: 토지 면적 (숫자, ㎡, 없으면 null)
- building_area: 건물 면적 (숫자, ㎡, 없으면 null)

반드시 JSON 형식으로만 응답해주세요 (다른 텍스트 없이).

문서 텍스트:
{{.Text}}
`

const saleItemPrompt = `다음 매각물건명세서 텍스트에서 아래 정보를 추출하여 JSON으로 반환해주세요.

추출 대상:
- case_number: 사건번호 (문자열)
- property_address: 소재지 (문자열)
- minimum_bid: 최저매각가격 (정수, 원 단위, 없으면 null)
- occupancy_info: 점유관계 목록 (배열, 각 항목은 아래 구조)
  - occupant_name: 점유자명 (문자열)
  - occupant_type: 유형 (임차인, 소유자, 기타)
  - deposit: 보증금 (정수, 원 단위, 없으면 null)
  - monthly_rent: 월세 (정수, 원 단위, 없으면 null)
  - move_in_date: 전입일 (문자열 YYYY-MM-DD, 없으면 null)
  - confirmed_date: 확정일자 (문자열 YYYY-MM-DD, 없으면 null)
  - dividend_applied: 배당요구 여부 (true/false)
- assumed_rights: 인수할 권리 목록 (문자열 배열)
- special_conditions: 특별매각조건 목록 (문자열 배열)

반드시 JSON 형식으로만 응답해주세요 (다른 텍스트 없이).

문서 텍스트:
{{.Text}}
`

const statusReportPrompt = `다음 현황조사보고서 텍스트에서 아래 정보를 추출하여 JSON으로 반환해주세요.

추출 대상:
- investigation_date: 조사일자 (문자열 YYYY-MM-DD, 없으면 null)
- property_address: 소재지 (문자열)
- current_occupant: 현재 점유자 (문자열, 없으면 null)
- occupancy_status: 점유 현황 (문자열, 없으면 null)
- building_condition: 건물 상태 (문자열, 없으면 null)
- access_road: 접근 도로 (문자열, 없으면 null)
- surroundings: 주변 환경 (문자열, 없으면 null)
- special_notes: 특이사항 목록 (문자열 배열)

반드시 JSON 형식으로만 응답해주세요 (다른 텍스트 없이).

문서 텍스트:
{{.Text}}
`

const rightsPrompt = `당신은 대한민국 부동산 경매 권리분석 전문가입니다.

말소기준권리: {{.BasisDescription}}

갑구:
{{entries .SectionA}}

을구:
{{entries .SectionB}}

점유관계:
{{occupants .Occupants}}

인수되는 권리:
{{entries .Assumed}}

인수 권리 합계: {{.TotalAssumedAmount}}원, 대항력 있는 임차보증금 합계: {{.TotalAssumedDeposit}}원

유치권, 법정지상권, 가처분 등 특수 권리와 임차인 문제를 고려하여 낙찰자 관점의 위험도를 평가해주세요.

반드시 아래 JSON 형식으로만 응답해주세요 (다른 텍스트 없이):
{"risk_level": "high|medium|low", "risk_factors": ["..."], "warnings": ["..."], "confidence": 0.0}
`

const newsPrompt = `당신은 대한민국 부동산 투자 전문 뉴스 분석가입니다.

다음 뉴스 목록을 분석하여 부동산 투자 관점에서 평가해주세요.
대상 지역: {{.Area}}

각 뉴스에 대해:
1. sentiment: "positive" | "negative" | "neutral"
2. impact_score: 0~10 (부동산 가치에 대한 영향도)
3. summary: 핵심 내용 1~2문장 요약

종합 분석:
- positive_factors: 호재 요소 목록 (문자열 배열)
- negative_factors: 악재 요소 목록 (문자열 배열)
- area_attractiveness_score: 0~100 (지역 매력도)
- investment_opinion: 투자 관점 종합 의견 (3~5문장)
- outlook: "긍정" | "중립" | "부정" (향후 6개월 전망)
- market_trend_summary: 시장 동향 요약 (2~3문장)

뉴스 목록:
{{.News}}

반드시 아래 JSON 형식으로만 응답해주세요 (다른 텍스트 없이):
{"analyzed_news": [{"title": "...", "sentiment": "positive|negative|neutral", "impact_score": 5, "summary": "..."}], "positive_factors": ["..."], "negative_factors": ["..."], "area_attractiveness_score": 65, "investment_opinion": "...", "outlook": "긍정|중립|부정", "market_trend_summary": "..."}
`

const reportPrompt = `다음 경매 분석 결과를 기반으로 최종 분석 리포트를 생성해주세요.
비전문가도 쉽게 이해할 수 있는 용어를 사용하세요.

## 권리분석 결과
{{.Rights}}

## 시장 데이터
{{.Market}}

## 뉴스 분석
{{.News}}

## 가치 평가
{{.Valuation}}

리포트 구조:
1. property_overview: 물건 개요 (2~3문장)
2. rights_summary: 권리분석 핵심 요약 (3~5문장)
3. market_summary: 시세 분석 요약 (3~5문장)
4. news_summary: 뉴스/동향 요약 (3~5문장)
5. overall_opinion: 종합 의견 (5~7문장)

반드시 아래 JSON 형식으로만 응답해주세요 (다른 텍스트 없이):
{"property_overview": "...", "rights_summary": "...", "market_summary": "...", "news_summary": "...", "overall_opinion": "..."}
`

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"entries":   formatEntries,
	"occupants": formatOccupants,
}).Parse(""))

func init() {
	for name, body := range map[string]string{
		"classify":      classifyPrompt,
		"registry":      registryPrompt,
		"appraisal":     appraisalPrompt,
		"sale_item":     saleItemPrompt,
		"status_report": statusReportPrompt,
		"rights":        rightsPrompt,
		"news":          newsPrompt,
		"report":        reportPrompt,
	} {
		template.Must(prompts.New(name).Parse(body))
	}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}

func formatEntries(entries []models.RightEntry) string {
	if len(entries) == 0 {
		return "없음"
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Describe())
	}
	return strings.Join(lines, "\n")
}

func formatOccupants(occupants []models.Occupant) string {
	if len(occupants) == 0 {
		return "없음"
	}
	lines := make([]string, 0, len(occupants))
	for _, o := range occupants {
		var deposit int64
		if o.Deposit != nil {
			deposit = *o.Deposit
		}
		moveIn := o.MoveInDate
		if moveIn == "" {
			moveIn = "미상"
		}
		lines = append(lines, fmt.Sprintf("%s (%s) | 보증금 %d원 | 전입일 %s", o.Name, o.Role, deposit, moveIn))
	}
	return strings.Join(lines, "\n")
}

// head returns at most n runes of s.
func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
