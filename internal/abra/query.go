package abra

import "strconv"

// Query holds the recognized query options of the Abra query language.
// String options are transmitted only when non-empty; Skip and Take only when
// non-nil, so that zero remains expressible (skip=0 is a valid page start).
type Query struct {
	Select  string // fields to return, comma-separated or "*"
	Where   string // filter expression, passed through verbatim
	OrderBy string // e.g. "Name" or "Amount desc"
	Expand  string // related objects to inline, e.g. "Firm_ID"
	GroupBy string // grouping field
	Skip    *int
	Take    *int
}

// Int is a convenience for the Skip/Take pointer fields.
func Int(v int) *int { return &v }

// Params converts the query into the parameter map consumed by BuildURL.
// Unset options are omitted entirely; absence and empty string are distinct
// on the wire.
func (q Query) Params() map[string]string {
	params := make(map[string]string)
	if q.Select != "" {
		params["select"] = q.Select
	}
	if q.Where != "" {
		params["where"] = q.Where
	}
	if q.OrderBy != "" {
		params["orderby"] = q.OrderBy
	}
	if q.Expand != "" {
		params["expand"] = q.Expand
	}
	if q.Skip != nil {
		params["skip"] = strconv.Itoa(*q.Skip)
	}
	if q.Take != nil {
		params["take"] = strconv.Itoa(*q.Take)
	}
	if q.GroupBy != "" {
		params["groupby"] = q.GroupBy
	}
	return params
}
