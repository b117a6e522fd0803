package ingest

import (
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLoadLinks(t *testing.T) {
	links, err := loadLinks("testdata")
	gt.NoError(t, err)
	gt.Equal(t, len(links), 4)

	// leading zeros survive
	gt.Equal(t, links[1].ImdbID, "0114709")
	gt.Equal(t, links[1].TmdbID, int64(862))

	// an empty tmdbId column is a missing mapping, not an error
	gt.Equal(t, links[4].ImdbID, "0118589")
	gt.Equal(t, links[4].TmdbID, int64(0))
}
