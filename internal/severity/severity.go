// Package severity holds the static catalog of review error categories and
// their severity weights. The weights drive the score penalty applied when an
// assignment is rejected.
package severity

import "strings"

// Category is one entry in the error catalog.
type Category struct {
	Code        string
	Description string
}

// Display returns the category as reviewers see and submit it: "CODE: description".
func (c Category) Display() string {
	return c.Code + ": " + c.Description
}

// catalog is ordered for display; codes group by area:
// LU = label usage, TE = technical execution, ME = missing/extra, PR = process.
var catalog = []Category{
	{"LU-01", "Incorrect label definition (e.g. a bus labeled as a car)"},
	{"LU-02", "Label confusion (e.g. motorbike vs electric bicycle)"},
	{"TE-01", "Wrong label region (box misses the object entirely)"},
	{"TE-02", "Box too loose (excess background included)"},
	{"TE-03", "Box too tight (object details cut off)"},
	{"TE-04", "Occlusion handled wrong (hidden parts drawn in)"},
	{"ME-01", "Missing object (label omitted)"},
	{"ME-02", "Extra label (drawn over empty space or debris)"},
	{"PR-01", "Process error (batch left unfinished)"},
	{"Other", "Other error"},
}

// All returns the full catalog in display order.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Valid reports whether the input matches a catalog entry by code prefix.
// Inputs arrive as display strings ("TE-02: Box too loose ..."), so a bare
// code or a full display string both pass.
func Valid(category string) bool {
	for _, c := range catalog {
		if strings.HasPrefix(category, c.Code) {
			return true
		}
	}
	return false
}

// Weight returns the severity weight for a category: 10 for critical errors,
// 5 for moderate ones, 2 for any other recognized entry, and 0 for empty or
// unrecognized input. Matching is by code prefix.
func Weight(category string) int {
	switch {
	case category == "":
		return 0
	case hasAnyPrefix(category, "LU-01", "ME-01", "TE-01", "PR-01"):
		return 10
	case hasAnyPrefix(category, "TE-02", "TE-03", "TE-04", "LU-02"):
		return 5
	case Valid(category):
		return 2
	default:
		return 0
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
