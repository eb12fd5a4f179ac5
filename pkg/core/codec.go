package core

// Codec encodes documents to bytes and back. Implementations must round-trip
// field order and every value kind the Document supports.
type Codec interface {
	// Encode converts the document to its persisted byte form.
	Encode(doc *Document) ([]byte, error)

	// Decode parses persisted bytes back into a document.
	Decode(data []byte) (*Document, error)
}
