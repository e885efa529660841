package models

// Container is the transient DOM-resident record described in spec.md §3.
// The core never owns the underlying DOM node; ContainerID is an opaque
// handle minted by the Browser Driver Adapter, typically a hex hash
// followed by "__N".
type Container struct {
	ContainerID string
	Visible     bool
	BBox        Rect
}

// Rect is a DOM bounding box in viewport pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MediaType classifies the downloaded artifact.
type MediaType string

const (
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaUnknown MediaType = "unknown"
)

// StrategyTag names the cascade member that produced a result, for both
// the Scroll Manager and the Metadata Extractor.
type StrategyTag string

// MetadataRecord is produced by the Metadata Extractor (component C) for a
// single container. A record with an empty CreationTime is not usable for
// deduplication and MUST NOT be logged (spec.md §3).
type MetadataRecord struct {
	CreationTime string
	Prompt       string
	MediaType    MediaType
	Confidence   float64
	Strategy     StrategyTag
}

// Identifiable reports whether the record carries a creation time and can
// therefore participate in deduplication.
func (m MetadataRecord) Identifiable() bool {
	return m.CreationTime != ""
}
