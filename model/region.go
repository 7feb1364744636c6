package model

import "fmt"

// RegionKind classifies a detected math expression region.
type RegionKind int

const (
	// RegionDisplayed is an expression set on its own line.
	RegionDisplayed RegionKind = iota
	// RegionEmbedded is an expression that shares its line with text.
	RegionEmbedded
)

// String returns the label used in result files.
func (k RegionKind) String() string {
	switch k {
	case RegionDisplayed:
		return "displayed"
	case RegionEmbedded:
		return "embedded"
	default:
		return fmt.Sprintf("RegionKind(%d)", int(k))
	}
}

// ParseRegionKind parses a result-file label back into a RegionKind.
func ParseRegionKind(label string) (RegionKind, error) {
	switch label {
	case "displayed":
		return RegionDisplayed, nil
	case "embedded":
		return RegionEmbedded, nil
	default:
		return 0, fmt.Errorf("unknown region kind %q", label)
	}
}

// Region is a candidate math expression region assembled from one merge
// segment.
type Region struct {
	// Segment is the identity of the segment the region was built from
	Segment int

	// Kind is displayed or embedded
	Kind RegionKind

	// BBox is the union of the member blob boxes
	BBox BBox

	// Members is the number of blobs in the segment
	Members int
}
