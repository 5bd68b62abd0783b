package models_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"flowdown/models"
)

var sanitizedPattern = regexp.MustCompile(`^[A-Za-z0-9._-]*$`)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"clean", "report-2024_v1.pdf", "report-2024_v1.pdf"},
		{"spaces", "My Report.docx", "My_Report.docx"},
		{"slashes", "a/b\\c", "a_b_c"},
		{"unicode", "café – menu", "caf____menu"},
		{"punctuation", "what?!(1)", "what___1_"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			got := models.Sanitize(c.in)
			assert.Equal(t, c.want, got)
			assert.Regexp(t, sanitizedPattern, got)
			assert.Equal(t, got, models.Sanitize(got), "Sanitize must be idempotent")
		})
	}
}

func TestFolder_Paths(t *testing.T) {
	child := models.Folder{ID: "B", Path: "/A", Name: "B"}
	assert.Equal(t, "/A/B", child.ChildPath())
	assert.Equal(t, "/A/B", child.ExportDir())

	root := models.Folder{ID: "R", Name: "Root", IsRoot: true}
	assert.Equal(t, "", root.ChildPath())
	assert.Equal(t, "", root.ExportDir())

	firstLevel := models.Folder{ID: "C", Path: root.ChildPath(), Name: "C"}
	assert.Equal(t, "/C", firstLevel.ExportDir())
}
