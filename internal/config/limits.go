package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxAncestorDepth bounds the ancestor walk in the circular-reference
	// check. Exceeding it is treated as circular (fails closed): a hierarchy
	// this deep is either corrupt or already a cycle.
	MaxAncestorDepth = 100
)
