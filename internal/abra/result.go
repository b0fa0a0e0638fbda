package abra

import "encoding/json"

// Record is one business object as returned by the API: field names mapped to
// JSON values. No local schema is imposed.
type Record map[string]any

// ResultKind tags the shape of a decoded response body.
type ResultKind int

const (
	// ResultEmpty is an empty or non-object, non-array body.
	ResultEmpty ResultKind = iota
	// ResultObject is a single business object.
	ResultObject
	// ResultList is a sequence of business objects.
	ResultList
)

// Result is the decoded body of a successful API response, an explicit
// variant instead of runtime type sniffing.
type Result struct {
	kind   ResultKind
	object Record
	list   []Record
}

func (r Result) Kind() ResultKind { return r.kind }

// Records normalizes the result to a sequence: a single object becomes a
// one-element slice, an empty result becomes nil.
func (r Result) Records() []Record {
	switch r.kind {
	case ResultObject:
		return []Record{r.object}
	case ResultList:
		return r.list
	default:
		return nil
	}
}

// Value returns the result as a plain JSON-serializable value. An empty
// result is an empty object, matching what the API means by a bodyless 2xx.
func (r Result) Value() any {
	switch r.kind {
	case ResultObject:
		return r.object
	case ResultList:
		return r.list
	default:
		return Record{}
	}
}

func objectResult(rec Record) Result  { return Result{kind: ResultObject, object: rec} }
func listResult(recs []Record) Result { return Result{kind: ResultList, list: recs} }

// decodeResult parses a response body. An empty body is the empty result.
// Scalar bodies (string, number, bool, null) also decode to the empty result
// rather than an error; the store never legitimately returns them.
func decodeResult(body []byte) (Result, error) {
	if len(body) == 0 {
		return Result{}, nil
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return Result{}, err
	}
	switch v := raw.(type) {
	case map[string]any:
		return objectResult(Record(v)), nil
	case []any:
		recs := make([]Record, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				recs = append(recs, Record(obj))
			}
		}
		return listResult(recs), nil
	default:
		return Result{}, nil
	}
}
