package ingest

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestBuildDescription(t *testing.T) {
	got := buildDescription(
		"The Matrix (1999)",
		[]string{"Action", "Sci-Fi"},
		[]string{"cyberpunk", "dystopia", "cyberpunk"},
	)

	gt.Equal(t, got, "The Matrix (1999) Action, Sci-Fi cyberpunk, dystopia")
}

func TestBuildDescriptionWithoutTags(t *testing.T) {
	got := buildDescription("Heat (1995)", []string{"Crime", "Thriller"}, nil)
	gt.Equal(t, got, "Heat (1995) Crime, Thriller")
}

func TestBuildDescriptionTitleOnly(t *testing.T) {
	got := buildDescription("Untitled", nil, nil)
	gt.Equal(t, got, "Untitled")
}

func TestDedupeKeepsFirstAppearance(t *testing.T) {
	got := dedupe([]string{"b", "a", "b", "c", "a"})
	gt.Equal(t, got, []string{"b", "a", "c"})
}
