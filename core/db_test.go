package core

import "testing"

func TestOrderByClause(t *testing.T) {
	columns := map[string]string{"id": "e.id_estudiante", "name": "e.nombre"}
	fallback := "e.id_estudiante ASC"

	tests := []struct {
		name      string
		orderings []DBOrdering
		want      string
	}{
		{name: "none", want: fallback},
		{name: "single asc", orderings: []DBOrdering{{Field: "name", Ascending: true}}, want: "e.nombre ASC"},
		{
			name:      "multiple",
			orderings: []DBOrdering{{Field: "name"}, {Field: "id", Ascending: true}},
			want:      "e.nombre DESC, e.id_estudiante ASC",
		},
		{name: "unknown only", orderings: []DBOrdering{{Field: "1; DROP TABLE curso"}}, want: fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderByClause(tt.orderings, columns, fallback); got != tt.want {
				t.Errorf("OrderByClause() = %q; want %q", got, tt.want)
			}
		})
	}
}
