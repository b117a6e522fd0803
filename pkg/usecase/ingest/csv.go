package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/tkumagai/cinexpert/pkg/model"
)

// rawMovie is one row of movies.csv. Genres come pipe-separated.
type rawMovie struct {
	ID     model.ItemID
	Title  string
	Genres []string
}

func loadMovies(dataDir string) ([]rawMovie, error) {
	rows, err := readCSV(filepath.Join(dataDir, "movies.csv"), 3)
	if err != nil {
		return nil, err
	}

	movies := make([]rawMovie, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid movieId in movies.csv", goerr.V("value", row[0]))
		}
		var genres []string
		if row[2] != "" && row[2] != "(no genres listed)" {
			genres = strings.Split(row[2], "|")
		}
		movies = append(movies, rawMovie{
			ID:     model.ItemID(id),
			Title:  row[1],
			Genres: genres,
		})
	}
	return movies, nil
}

func loadRatings(dataDir string) ([]model.UserHistoryRecord, error) {
	rows, err := readCSV(filepath.Join(dataDir, "ratings.csv"), 3)
	if err != nil {
		return nil, err
	}

	records := make([]model.UserHistoryRecord, 0, len(rows))
	for _, row := range rows {
		userID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid userId in ratings.csv", goerr.V("value", row[0]))
		}
		itemID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid movieId in ratings.csv", goerr.V("value", row[1]))
		}
		rating, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid rating in ratings.csv", goerr.V("value", row[2]))
		}
		records = append(records, model.UserHistoryRecord{
			UserID: model.UserID(userID),
			ItemID: model.ItemID(itemID),
			Rating: rating,
		})
	}
	return records, nil
}

// movieLink is one row of links.csv. The IMDb identifier keeps its leading
// zeros; the TMDB column may be empty.
type movieLink struct {
	ImdbID string
	TmdbID int64
}

func loadLinks(dataDir string) (map[model.ItemID]movieLink, error) {
	rows, err := readCSV(filepath.Join(dataDir, "links.csv"), 2)
	if err != nil {
		return nil, err
	}

	links := make(map[model.ItemID]movieLink, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid movieId in links.csv", goerr.V("value", row[0]))
		}
		link := movieLink{ImdbID: row[1]}
		if len(row) > 2 && row[2] != "" {
			tmdbID, err := strconv.ParseInt(row[2], 10, 64)
			if err != nil {
				return nil, goerr.Wrap(err, "invalid tmdbId in links.csv", goerr.V("value", row[2]))
			}
			link.TmdbID = tmdbID
		}
		links[model.ItemID(id)] = link
	}
	return links, nil
}

// loadTags returns user tags grouped per movie, in file order.
func loadTags(dataDir string) (map[model.ItemID][]string, error) {
	rows, err := readCSV(filepath.Join(dataDir, "tags.csv"), 3)
	if err != nil {
		return nil, err
	}

	tags := make(map[model.ItemID][]string)
	for _, row := range rows {
		itemID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid movieId in tags.csv", goerr.V("value", row[1]))
		}
		id := model.ItemID(itemID)
		tags[id] = append(tags[id], row[2])
	}
	return tags, nil
}

// readCSV reads a headered CSV and returns its data rows. minFields guards
// against truncated rows; extra columns (timestamps etc.) are kept but
// ignored by callers.
func readCSV(path string, minFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open CSV", goerr.V("path", path))
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read CSV header", goerr.V("path", path))
	}
	if len(header) < minFields {
		return nil, goerr.New("unexpected CSV header",
			goerr.V("path", path), goerr.V("fields", len(header)))
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read CSV row", goerr.V("path", path))
		}
		if len(row) < minFields {
			return nil, goerr.New("truncated CSV row",
				goerr.V("path", path), goerr.V("fields", len(row)))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
