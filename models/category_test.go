package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowdown/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		mime string
		want models.Category
	}{
		{"folder", "application/vnd.google-apps.folder", models.CategoryFolder},
		{"shortcut", "application/vnd.google-apps.shortcut", models.CategoryShortcut},
		{"document", "application/vnd.google-apps.document", models.CategoryDocument},
		{"spreadsheet", "application/vnd.google-apps.spreadsheet", models.CategorySpreadsheet},
		{"presentation", "application/vnd.google-apps.presentation", models.CategoryOther},
		{"bare-prefix", "application/vnd.google-apps.", models.CategoryOther},
		{"pdf", "application/pdf", models.CategoryBinary},
		{"plain", "text/plain", models.CategoryBinary},
		{"prefix-not-leading", "x-application/vnd.google-apps.folder", models.CategoryBinary},
		{"case-sensitive", "Application/vnd.google-apps.folder", models.CategoryBinary},
		{"empty", "", models.CategoryBinary},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			got := models.Classify(c.mime)
			assert.Equal(t, c.want, got, "Classify(%q)", c.mime)
			assert.Equal(t, got, models.Classify(c.mime), "Classify must be pure")
		})
	}
}

func TestCategory_StringAndExtension(t *testing.T) {
	cases := []struct {
		category models.Category
		str      string
		ext      string
	}{
		{models.CategoryBinary, "binary", ""},
		{models.CategoryFolder, "folder", ""},
		{models.CategoryShortcut, "shortcut", ""},
		{models.CategoryDocument, "document", ".md"},
		{models.CategorySpreadsheet, "spreadsheet", ".json"},
		{models.CategoryOther, "other", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.str, c.category.String())
		assert.Equal(t, c.ext, c.category.Extension())
	}
}
