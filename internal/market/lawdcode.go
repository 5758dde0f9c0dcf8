package market

import (
	"strings"
	"unicode"
)

type region struct {
	province string
	district string
	code     string
}

// regions lists the five-digit legal district codes we can look up.
var regions = []region{
	{"서울", "종로구", "11110"},
	{"서울", "중구", "11140"},
	{"서울", "용산구", "11170"},
	{"서울", "성동구", "11200"},
	{"서울", "광진구", "11215"},
	{"서울", "동대문구", "11230"},
	{"서울", "중랑구", "11260"},
	{"서울", "성북구", "11290"},
	{"서울", "강북구", "11305"},
	{"서울", "도봉구", "11320"},
	{"서울", "노원구", "11350"},
	{"서울", "은평구", "11380"},
	{"서울", "서대문구", "11410"},
	{"서울", "마포구", "11440"},
	{"서울", "양천구", "11470"},
	{"서울", "강서구", "11500"},
	{"서울", "구로구", "11530"},
	{"서울", "금천구", "11545"},
	{"서울", "영등포구", "11560"},
	{"서울", "동작구", "11590"},
	{"서울", "관악구", "11620"},
	{"서울", "서초구", "11650"},
	{"서울", "강남구", "11680"},
	{"서울", "송파구", "11710"},
	{"서울", "강동구", "11740"},
	{"부산", "해운대구", "26350"},
	{"부산", "수영구", "26500"},
	{"대구", "수성구", "27260"},
	{"인천", "연수구", "28185"},
	{"대전", "유성구", "30200"},
	{"세종", "세종특별자치시", "36110"},
	{"수원", "영통구", "41117"},
	{"성남", "분당구", "41135"},
	{"광명", "광명시", "41210"},
	{"고양", "일산동구", "41285"},
	{"과천", "과천시", "41290"},
	{"하남", "하남시", "41450"},
	{"용인", "수지구", "41465"},
}

// LawdCode resolves the legal district code of an address. A district name
// alone is accepted when the province is omitted.
func LawdCode(address string) (string, bool) {
	addr := strings.Join(strings.Fields(address), " ")
	if addr == "" {
		return "", false
	}
	for _, r := range regions {
		if strings.Contains(addr, r.province) && containsWord(addr, r.district) {
			return r.code, true
		}
	}
	for _, r := range regions {
		if containsWord(addr, r.district) {
			return r.code, true
		}
	}
	return "", false
}

// containsWord matches name as a whole address token so that 중구 does not
// match inside 중랑구.
func containsWord(addr, name string) bool {
	for _, tok := range strings.Fields(addr) {
		if tok == name {
			return true
		}
	}
	return false
}

// GuessBuildingName picks the complex name out of an apartment address: the
// first token of at least four runes that is not an administrative unit,
// street or lot number.
func GuessBuildingName(address string) string {
	for _, tok := range strings.Fields(address) {
		runes := []rune(tok)
		if len(runes) < 4 || unicode.IsDigit(runes[0]) {
			continue
		}
		switch runes[len(runes)-1] {
		case '시', '구', '동', '로', '길', '도', '군', '읍', '면':
			continue
		}
		return tok
	}
	return ""
}
