package abra

import "testing"

func TestQueryParams_OmitsUnset(t *testing.T) {
	params := Query{}.Params()
	if len(params) != 0 {
		t.Fatalf("empty query must produce no params, got %v", params)
	}

	params = Query{Select: "ID,Name", Where: "Amount gt 10000"}.Params()
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %v", params)
	}
	if params["select"] != "ID,Name" || params["where"] != "Amount gt 10000" {
		t.Errorf("params = %v", params)
	}
	if _, ok := params["orderby"]; ok {
		t.Error("unset orderby must be omitted")
	}
}

func TestQueryParams_ZeroSkipTakePreserved(t *testing.T) {
	params := Query{Skip: Int(0), Take: Int(0)}.Params()
	if params["skip"] != "0" {
		t.Errorf("skip = %q, want \"0\"", params["skip"])
	}
	if params["take"] != "0" {
		t.Errorf("take = %q, want \"0\"", params["take"])
	}
}

func TestQueryParams_NilSkipTakeOmitted(t *testing.T) {
	params := Query{Select: "ID"}.Params()
	if _, ok := params["skip"]; ok {
		t.Error("nil skip must be omitted")
	}
	if _, ok := params["take"]; ok {
		t.Error("nil take must be omitted")
	}
}

func TestQueryParams_AllSeven(t *testing.T) {
	q := Query{
		Select:  "ID",
		Where:   "Amount gt 1",
		OrderBy: "Amount desc",
		Expand:  "Firm_ID",
		GroupBy: "Firm_ID",
		Skip:    Int(10),
		Take:    Int(50),
	}
	params := q.Params()
	if len(params) != 7 {
		t.Fatalf("expected 7 params, got %d: %v", len(params), params)
	}
	if params["groupby"] != "Firm_ID" || params["skip"] != "10" || params["take"] != "50" {
		t.Errorf("params = %v", params)
	}
}
