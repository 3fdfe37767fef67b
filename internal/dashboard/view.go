package dashboard

import (
	"slices"

	"github.com/MrJamesThe3rd/fiore/internal/record"
)

const DefaultPageSize = 10

// PageSizes are the page sizes offered to the user.
var PageSizes = []int{5, 10, 20, 50}

// View holds the client-side state of the dashboard table: the fetched
// records and the user's filter and paging selections.
type View struct {
	records     []record.Record
	filterField string
	filterValue string
	page        int
	pageSize    int
}

func NewView() *View {
	return &View{page: 1, pageSize: DefaultPageSize}
}

// SetRecords replaces the record set and returns to the first page. The
// filter field defaults to the first column.
func (v *View) SetRecords(records []record.Record) {
	v.records = records
	v.page = 1

	if cols := Columns(records); v.filterField == "" && len(cols) > 0 {
		v.filterField = cols[0]
	}
}

func (v *View) Records() []record.Record {
	return v.records
}

func (v *View) SetPageSize(size int) {
	if size <= 0 {
		size = DefaultPageSize
	}

	v.pageSize = size
	v.page = 1
}

func (v *View) PageSize() int {
	return v.pageSize
}

// CyclePageSize advances to the next entry of PageSizes.
func (v *View) CyclePageSize() {
	i := slices.Index(PageSizes, v.pageSize)
	v.SetPageSize(PageSizes[(i+1)%len(PageSizes)])
}

func (v *View) SetFilter(field, value string) {
	v.filterField = field
	v.filterValue = value
}

func (v *View) FilterField() string {
	return v.filterField
}

func (v *View) FilterValue() string {
	return v.filterValue
}

func (v *View) SetPage(page int) {
	v.page = min(max(1, page), TotalPages(len(v.Rows()), v.pageSize))
}

func (v *View) NextPage() {
	v.SetPage(v.page + 1)
}

func (v *View) PrevPage() {
	v.SetPage(v.page - 1)
}

func (v *View) Columns() []string {
	return Columns(v.records)
}

// Rows returns the filtered records.
func (v *View) Rows() []record.Record {
	return Filter(v.records, v.filterField, v.filterValue)
}

// Window returns the current page of filtered rows. The page is clamped to
// the last page when the filter shrank the result.
func (v *View) Window() Window {
	rows := v.Rows()
	page := min(v.page, TotalPages(len(rows), v.pageSize))

	return Paginate(rows, page, v.pageSize)
}

func (v *View) Totals() []Total {
	return Totals(v.Rows(), v.Columns())
}

// HasDateField reports whether the records carry a date column.
func (v *View) HasDateField() bool {
	return len(v.records) > 0 && v.records[0].Has("date")
}
