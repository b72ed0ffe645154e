package domain

import "strings"

// Sido lists the seventeen first-level administrative divisions in their
// conventional display order. This is the canonical enumeration every region
// name normalizes into.
var Sido = []string{
	"서울특별시", "부산광역시", "대구광역시", "인천광역시", "광주광역시", "대전광역시", "울산광역시",
	"세종특별자치시", "경기도", "강원특별자치도", "충청북도", "충청남도", "전라북도", "전라남도",
	"경상북도", "경상남도", "제주특별자치도",
}

// regionAlias maps one observed name variant to its canonical sido name.
type regionAlias struct {
	alias     string
	canonical string
}

// regionAliases is evaluated top to bottom: exact matches first, then a
// whitespace-insensitive substring pass. Order matters for substring ties
// (e.g. "충청" hits 충청북도 before 충청남도), so the table must stay in this
// deterministic order. Identity entries make every canonical name a fixed
// point; the renamed-division entries cover pre-2023 names still present in
// older KOSIS extracts.
var regionAliases = []regionAlias{
	{"강원도", "강원특별자치도"},
	{"전북특별자치도", "전라북도"},
	{"제주도", "제주특별자치도"},
	{"서울특별시", "서울특별시"},
	{"부산광역시", "부산광역시"},
	{"대구광역시", "대구광역시"},
	{"인천광역시", "인천광역시"},
	{"광주광역시", "광주광역시"},
	{"대전광역시", "대전광역시"},
	{"울산광역시", "울산광역시"},
	{"세종특별자치시", "세종특별자치시"},
	{"경기도", "경기도"},
	{"강원특별자치도", "강원특별자치도"},
	{"충청북도", "충청북도"},
	{"충청남도", "충청남도"},
	{"전라북도", "전라북도"},
	{"전라남도", "전라남도"},
	{"경상북도", "경상북도"},
	{"경상남도", "경상남도"},
	{"제주특별자치도", "제주특별자치도"},
}

// CanonicalRegion maps a raw region name to its canonical sido form.
//
// Matching is greedy and order-dependent: an exact alias match wins, then the
// first alias whose whitespace-stripped form contains (or is contained in)
// the stripped input. Unmatched names are returned trimmed, unchanged —
// normalization is best-effort, not total.
func CanonicalRegion(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return name
	}

	for _, a := range regionAliases {
		if name == a.alias {
			return a.canonical
		}
	}

	stripped := stripSpace(name)
	if stripped == "" {
		return name
	}
	for _, a := range regionAliases {
		key := stripSpace(a.alias)
		if strings.Contains(key, stripped) || strings.Contains(stripped, key) {
			return a.canonical
		}
	}

	return name
}

// KnownRegion reports whether name is one of the canonical sido names.
func KnownRegion(name string) bool {
	for _, s := range Sido {
		if s == name {
			return true
		}
	}
	return false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
