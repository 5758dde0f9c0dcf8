package market

import "strings"

// Kind is the property kind used to choose a transaction data set.
type Kind string

const (
	KindApartment Kind = "apartment"
	KindRowHouse  Kind = "row_house"
	KindDetached  Kind = "detached"
	KindOfficetel Kind = "officetel"
)

// Deal distinguishes sales from leases.
type Deal string

const (
	DealTrade Deal = "trade"
	DealRent  Deal = "rent"
)

var kindKeywords = []struct {
	keyword string
	kind    Kind
}{
	{"아파트", KindApartment},
	{"공동주택", KindApartment},
	{"apartment", KindApartment},
	{"연립", KindRowHouse},
	{"다세대", KindRowHouse},
	{"빌라", KindRowHouse},
	{"villa", KindRowHouse},
	{"단독", KindDetached},
	{"다가구", KindDetached},
	{"detached", KindDetached},
	{"오피스텔", KindOfficetel},
	{"officetel", KindOfficetel},
}

// ResolveKind maps a registry property type to a Kind. Unrecognised types
// are treated as apartments.
func ResolveKind(propertyType string) Kind {
	pt := strings.ToLower(propertyType)
	for _, k := range kindKeywords {
		if strings.Contains(pt, k.keyword) {
			return k.kind
		}
	}
	return KindApartment
}

var endpoints = map[Kind]map[Deal]string{
	KindApartment: {
		DealTrade: "/RTMSDataSvcAptTrade/getRTMSDataSvcAptTrade",
		DealRent:  "/RTMSDataSvcAptRent/getRTMSDataSvcAptRent",
	},
	KindRowHouse: {
		DealTrade: "/RTMSDataSvcRHTrade/getRTMSDataSvcRHTrade",
		DealRent:  "/RTMSDataSvcRHRent/getRTMSDataSvcRHRent",
	},
	KindDetached: {
		DealTrade: "/RTMSDataSvcSHTrade/getRTMSDataSvcSHTrade",
		DealRent:  "/RTMSDataSvcSHRent/getRTMSDataSvcSHRent",
	},
	KindOfficetel: {
		DealTrade: "/RTMSDataSvcOffiTrade/getRTMSDataSvcOffiTrade",
		DealRent:  "/RTMSDataSvcOffiRent/getRTMSDataSvcOffiRent",
	},
}

// Endpoint returns the data-service path for the kind and deal.
func (k Kind) Endpoint(d Deal) (string, bool) {
	path, ok := endpoints[k][d]
	return path, ok
}
