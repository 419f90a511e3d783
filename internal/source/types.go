package source

// Flags records how a document's bytes were normalized on load.
type Flags uint8

const (
	// FlagVirtual marks a document built from memory rather than read from disk.
	FlagVirtual Flags = 1 << iota
	FlagHadBOM
	FlagNormalizedCRLF
)

// Document is an ordered, 1-indexed sequence of source lines.
// Lines are stored without their terminators.
type Document struct {
	Path  string
	Lines []string
	Flags Flags
}
