package eval

import (
	"testing"

	"github.com/detectivekit/casegraph/internal/vars"
)

func TestEvaluate(t *testing.T) {
	store := vars.NewStore()
	store.Set("count", vars.Number(10))
	store.Set("name", vars.String("Inspector Vale"))
	store.Set("flag", vars.Bool(true))
	store.Set("text_num", vars.String("10"))

	cases := []struct {
		name     string
		variable string
		operator string
		literal  string
		want     bool
	}{
		{"numeric equality", "count", OpEqual, "10", true},
		{"numeric equality across formats", "text_num", OpEqual, "10.0", true},
		{"string equality", "name", OpEqual, "Inspector Vale", true},
		{"string inequality", "name", OpNotEqual, "Vale", true},
		{"bool stringifies", "flag", OpEqual, "true", true},

		{"greater true", "count", OpGreater, "5", true},
		{"greater false", "count", OpGreater, "10", false},
		{"less true", "count", OpLess, "11", true},
		{"ordering fails closed on text", "name", OpGreater, "5", false},
		{"ordering fails closed on bad literal", "count", OpGreater, "lots", false},

		{"contains substring", "name", OpContains, "Vale", true},
		{"contains miss", "name", OpContains, "Moriarty", false},

		// Absent variables stringify to "" and count as 0 numerically.
		{"absent equals empty", "missing", OpEqual, "", true},
		{"absent not equal to value", "missing", OpEqual, "1", false},
		{"absent less than one", "missing", OpLess, "1", true},
		{"absent contains empty", "missing", OpContains, "", true},

		{"unknown operator fails closed", "count", ">=", "5", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(store, tc.variable, tc.operator, tc.literal); got != tc.want {
				t.Errorf("Evaluate(%q, %q, %q) = %v, want %v", tc.variable, tc.operator, tc.literal, got, tc.want)
			}
		})
	}
}
