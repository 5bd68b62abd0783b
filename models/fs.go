package models

// Folder is a node discovered by the public page walk.
// Path holds the path to the folder's parent, not to the folder itself.
type Folder struct {
	ID     string
	Path   string
	IsRoot bool
	Name   string
	Docs   []string
	Sheets []string
	Files  []string
}

// ChildPath is the path handed to this folder's sub-folders.
func (f Folder) ChildPath() string {
	if f.IsRoot {
		return ""
	}
	return f.Path + "/" + f.Name
}

// ExportDir is the directory, relative to the export root, that receives
// this folder's documents and files. The root maps to the export root itself.
func (f Folder) ExportDir() string {
	if f.IsRoot {
		return ""
	}
	return f.ChildPath()
}
