package clients_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowdown/clients"
)

func TestRowsToRecords(t *testing.T) {
	cases := []struct {
		name string
		rows [][]string
		want []map[string]string
	}{
		{"empty", nil, []map[string]string{}},
		{"header-only", [][]string{{"a", "b"}}, []map[string]string{}},
		{"padded", [][]string{{"a", "b"}, {"1"}}, []map[string]string{{"a": "1", "b": ""}}},
		{"blank-header", [][]string{{"a", ""}, {"1", "2"}}, []map[string]string{{"a": "1", "column_2": "2"}}},
		{"blank-row", [][]string{{"a"}, {""}, {"x"}}, []map[string]string{{"a": "x"}}},
		{"extra-cells-dropped", [][]string{{"a"}, {"1", "2"}}, []map[string]string{{"a": "1"}}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, clients.RowsToRecords(c.rows))
		})
	}
}
