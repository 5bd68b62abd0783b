package models

import "strings"

// MimeTypePrefixGoogleApp marks Drive native app types.
const MimeTypePrefixGoogleApp = "application/vnd.google-apps."

const (
	MimeTypeFolder      = MimeTypePrefixGoogleApp + "folder"
	MimeTypeShortcut    = MimeTypePrefixGoogleApp + "shortcut"
	MimeTypeDocument    = MimeTypePrefixGoogleApp + "document"
	MimeTypeSpreadsheet = MimeTypePrefixGoogleApp + "spreadsheet"
)

// Category classifies a remote item by its MIME type.
type Category int

const (
	CategoryBinary Category = iota
	CategoryFolder
	CategoryShortcut
	CategoryDocument
	CategorySpreadsheet
	// CategoryOther covers native app types without an exporter
	// (presentations, forms, drawings, ...).
	CategoryOther
)

// Classify derives a category from a MIME type. The native app prefix is the
// only thing that decides: anything without it, including "", is binary.
func Classify(mimeType string) Category {
	suffix, ok := strings.CutPrefix(mimeType, MimeTypePrefixGoogleApp)
	if !ok {
		return CategoryBinary
	}
	switch suffix {
	case "folder":
		return CategoryFolder
	case "shortcut":
		return CategoryShortcut
	case "document":
		return CategoryDocument
	case "spreadsheet":
		return CategorySpreadsheet
	default:
		return CategoryOther
	}
}

func (c Category) String() string {
	switch c {
	case CategoryBinary:
		return "binary"
	case CategoryFolder:
		return "folder"
	case CategoryShortcut:
		return "shortcut"
	case CategoryDocument:
		return "document"
	case CategorySpreadsheet:
		return "spreadsheet"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// Extension is appended to an exported item's name.
func (c Category) Extension() string {
	switch c {
	case CategoryDocument:
		return ".md"
	case CategorySpreadsheet:
		return ".json"
	default:
		return ""
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
