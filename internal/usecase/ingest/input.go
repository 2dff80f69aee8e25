package ingest

import (
	"fmt"
	"strings"

	"github.com/refind-app/refind/internal/domain"
)

// EmbeddingInput assembles the canonical text an item is embedded from. The
// image analysis is repeated three times to dominate the vector; recheck
// rebuilds the exact same text so fresh embeddings stay comparable with the
// stored ones.
func EmbeddingInput(it *domain.Item) string {
	location := it.Location
	if location == "" {
		location = "Unknown"
	}
	locationDetails := it.LocationDescription
	if locationDetails == "" {
		locationDetails = "None"
	}
	coordinates := "Unknown"
	if it.Coordinates != nil {
		coordinates = fmt.Sprintf("%g, %g", it.Coordinates.Lat, it.Coordinates.Lng)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "OBJECT TYPE (CRITICAL): %s\n\n", it.Category)
	fmt.Fprintf(&b, "IMAGE ANALYSIS (PRIMARY SOURCE - MOST IMPORTANT):\n%s\n\n", it.ImageAnalysis)
	fmt.Fprintf(&b, "IMAGE ANALYSIS (REPEATED FOR EMPHASIS):\n%s\n\n", it.ImageAnalysis)
	fmt.Fprintf(&b, "IMAGE ANALYSIS (THIRD EMPHASIS):\n%s\n\n", it.ImageAnalysis)
	fmt.Fprintf(&b, "SEMANTIC SUMMARY:\n%s\n\n", it.SemanticDescription)
	fmt.Fprintf(&b, "ITEM NAME: %s\n\n", it.Name)
	fmt.Fprintf(&b, "USER DESCRIPTION:\n%s\n\n", it.RawDescription)
	fmt.Fprintf(&b, "LOCATION: %s\n", location)
	fmt.Fprintf(&b, "LOCATION DETAILS: %s\n\n", locationDetails)
	fmt.Fprintf(&b, "COORDINATES: %s\n", coordinates)
	return b.String()
}
