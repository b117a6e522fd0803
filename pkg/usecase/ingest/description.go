package ingest

import "strings"

// buildDescription concatenates title, genre list and deduplicated tags into
// the single text that gets embedded. Tag order follows first appearance so
// re-ingestion of the same data yields the same text. Concatenation works
// because encoded concepts superpose: "pirate" and "zombie" both survive in
// the vector, letting users search by vibe as well as genre.
func buildDescription(title string, genres, tags []string) string {
	parts := []string{title}
	if len(genres) > 0 {
		parts = append(parts, strings.Join(genres, ", "))
	}
	if deduped := dedupe(tags); len(deduped) > 0 {
		parts = append(parts, strings.Join(deduped, ", "))
	}
	return strings.Join(parts, " ")
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
