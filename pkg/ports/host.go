package ports

// Host is the persistent file store behind a tree. The dry-run phase only
// ever calls Exists, Read and Walk; Write, Delete and Rename are reserved
// for the commit phase, which calls them in finalized action order and
// propagates any failure verbatim.
type Host interface {
	// Exists reports whether a file is present at path.
	Exists(path string) bool

	// Read returns the content of the file at path.
	// Returns domain.ErrPathDoesNotExist if no file is present.
	Read(path string) ([]byte, error)

	// Write creates or replaces the file at path.
	Write(path string, content []byte) error

	// Delete removes the file at path.
	// Returns domain.ErrPathDoesNotExist if no file is present.
	Delete(path string) error

	// Rename moves a file from one path to another.
	Rename(from, to string) error

	// Walk calls fn for every file in the store, in lexical path order.
	// Returning an error from fn stops the walk and propagates the error.
	Walk(fn func(path string) error) error
}
