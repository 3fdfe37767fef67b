package record

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrUnknownResource = errors.New("unknown resource")

// Resource identifies one dashboard dataset.
type Resource string

const (
	Clients           Resource = "clients"
	Receipts          Resource = "receipts"
	Suppliers         Resource = "suppliers"
	IssuedDocuments   Resource = "issued-documents"
	ReceivedDocuments Resource = "received-documents"
	Products          Resource = "products"
	Reports           Resource = "reports"
	Expenses          Resource = "expenses"
)

// Resources lists every resource in menu order.
var Resources = []Resource{
	Expenses,
	Receipts,
	IssuedDocuments,
	ReceivedDocuments,
	Clients,
	Suppliers,
	Products,
	Reports,
}

func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}

	return r, nil
}

func (r Resource) Valid() bool {
	for _, known := range Resources {
		if r == known {
			return true
		}
	}

	return false
}

// Endpoint is the API path serving the resource.
func (r Resource) Endpoint() string {
	return "/dashboard/" + string(r)
}

// SupportsDates reports whether the API honours startDate/endDate for r.
func (r Resource) SupportsDates() bool {
	switch r {
	case Expenses, Receipts, IssuedDocuments, ReceivedDocuments, Clients:
		return true
	}

	return false
}

// Label is the human readable name.
func (r Resource) Label() string {
	s := strings.ReplaceAll(string(r), "-", " ")
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// Params are the optional query parameters of a fetch.
type Params struct {
	StartDate   string
	EndDate     string
	Page        int
	PageSize    int
	FilterField string
	FilterValue string
	Type        string
}

// Values encodes the non-empty parameters with their wire names.
func (p Params) Values() url.Values {
	v := url.Values{}

	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	set("startDate", p.StartDate)
	set("endDate", p.EndDate)
	set("filterField", p.FilterField)
	set("filterValue", p.FilterValue)
	set("type", p.Type)

	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}

	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}

	return v
}
