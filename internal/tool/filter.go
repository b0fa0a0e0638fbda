package tool

import (
	"fmt"
	"strings"
)

// escapeLiteral makes s safe for embedding inside a single-quoted string
// literal of the Abra filter language by doubling quote characters.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// searchFilter builds a case-insensitive substring match over Name or Code.
func searchFilter(term string) string {
	t := escapeLiteral(term)
	return fmt.Sprintf("(upper(Name) like upper('%%%s%%') or upper(Code) like upper('%%%s%%'))", t, t)
}

// invoiceFilter conjoins the optional invoice predicates: inclusive document
// date bounds (lower bound first) and an exact firm match. Returns "" when no
// predicate is set.
func invoiceFilter(fromDate, toDate, firmID string) string {
	var conds []string
	if fromDate != "" {
		conds = append(conds, fmt.Sprintf("DocDate ge timestamp'%s'", escapeLiteral(fromDate)))
	}
	if toDate != "" {
		conds = append(conds, fmt.Sprintf("DocDate le timestamp'%s'", escapeLiteral(toDate)))
	}
	if firmID != "" {
		conds = append(conds, fmt.Sprintf("Firm_ID eq '%s'", escapeLiteral(firmID)))
	}
	return strings.Join(conds, " and ")
}
