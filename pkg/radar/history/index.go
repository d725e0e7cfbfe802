package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve"

	"radar-coach-be/internal/pkg/logger"
	"radar-coach-be/pkg/radar/sanitize"
)

// Blip is one historical radar entry. Immutable after load.
type Blip struct {
	Name     string `json:"name"`
	Ring     string `json:"ring"`
	Quadrant string `json:"quadrant"`
	Volume   string `json:"volume"`
}

// Match pairs a historical blip with its relevance score.
type Match struct {
	Blip
	Score float64 `json:"score"`
}

// Relevance tiers. Token-overlap scores scale between the floor and
// scoreOverlapMax by shared-token ratio, so they always rank below
// substring containment.
const (
	scoreExact      = 1.0
	scoreSubstring  = 0.75
	scoreOverlapMax = 0.6
	scoreFloor      = 0.3

	overlapCandidates = 50
)

// Index is a read-only snapshot of the historical corpus, safe for
// unlimited concurrent readers. The bleve mem-only index supplies
// token-overlap candidates; final scoring is the deterministic tiering
// above.
type Index struct {
	blips []Blip
	text  bleve.Index
}

var volumePattern = regexp.MustCompile(`Volume (\d+)`)

// volumeLabel extracts the short edition label from a CSV filename,
// e.g. "Thoughtworks Technology Radar Volume 31 (Oct 2024).csv"
// -> "Volume 31 (Oct 2024)".
func volumeLabel(filename string) string {
	m := regexp.MustCompile(`(Volume \d+ \([^)]+\))`).FindStringSubmatch(filename)
	if m != nil {
		return m[1]
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

func volumeNumber(volume string) int {
	m := volumePattern.FindStringSubmatch(volume)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// Load reads every *.csv volume file in dir into an Index. Per-row parse
// failures and individually unreadable files are logged and skipped; only
// ending up with zero loaded files is an error, since duplicate detection
// would be silently useless.
func Load(dir string, log logger.ILogger) (*Index, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing radar history dir: %w", err)
	}
	sort.Strings(paths)

	idx := &Index{}
	mapping := bleve.NewIndexMapping()
	idx.text, err = bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("creating history index: %w", err)
	}

	loadedFiles := 0
	for _, path := range paths {
		n, err := idx.loadFile(path)
		if err != nil {
			log.Warn("History", "Skipping unreadable volume file", map[string]interface{}{
				"path": path, "error": err.Error(),
			})
			continue
		}
		loadedFiles++
		log.Info("History", "Loaded volume file", map[string]interface{}{
			"path": path, "blips": n,
		})
	}
	if loadedFiles == 0 {
		return nil, errors.New("no radar history volumes could be loaded")
	}
	return idx, nil
}

func (idx *Index) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, err
	}
	cols := columnPositions(header)
	if cols.name < 0 {
		return 0, fmt.Errorf("no name column in %s", filepath.Base(path))
	}

	volume := sanitize.External(volumeLabel(filepath.Base(path)))
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, not a dead file. Keep going.
			continue
		}
		blip, ok := parseRow(row, cols, volume)
		if !ok {
			continue
		}
		id := strconv.Itoa(len(idx.blips))
		idx.blips = append(idx.blips, blip)
		if err := idx.text.Index(id, map[string]string{"name": blip.Name}); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

type columns struct {
	name, ring, quadrant int
}

// columnPositions tolerates missing and extra columns by locating the ones
// we care about in the header row.
func columnPositions(header []string) columns {
	cols := columns{name: -1, ring: -1, quadrant: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			cols.name = i
		case "ring":
			cols.ring = i
		case "quadrant":
			cols.quadrant = i
		}
	}
	return cols
}

func parseRow(row []string, cols columns, volume string) (Blip, bool) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	name := sanitize.External(cell(cols.name))
	if name == "" {
		return Blip{}, false
	}
	blip := Blip{
		Name:   name,
		Ring:   sanitize.External(titleCase(cell(cols.ring))),
		Volume: volume,
	}
	if quad := cell(cols.quadrant); quad != "" {
		blip.Quadrant = normalizeQuadrant(quad)
	}
	return blip, true
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// normalizeQuadrant maps the CSV's lowercase hyphenated quadrant values to
// display form.
func normalizeQuadrant(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "techniques":
		return "Techniques"
	case "tools":
		return "Tools"
	case "platforms":
		return "Platforms"
	case "languages-and-frameworks", "languages & frameworks":
		return "Languages & Frameworks"
	}
	return strings.TrimSpace(raw)
}

// Count returns the number of loaded historical blips.
func (idx *Index) Count() int { return len(idx.blips) }

// Search runs the tiered duplicate-candidate lookup: case-insensitive
// exact name match first, substring containment either direction next,
// then significant-token overlap via the bleve index. Results under the
// relevance floor are dropped; ordering is score descending, most recent
// volume first on ties, then name ascending. An empty result is nil,
// never an error.
func (idx *Index) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	scores := make(map[int]float64)
	for i := range idx.blips {
		name := strings.ToLower(idx.blips[i].Name)
		switch {
		case name == q:
			scores[i] = scoreExact
		case strings.Contains(name, q) || strings.Contains(q, name):
			scores[i] = scoreSubstring
		}
	}

	idx.addOverlapCandidates(query, q, scores)

	matches := make([]Match, 0, len(scores))
	for i, score := range scores {
		if score < scoreFloor {
			continue
		}
		matches = append(matches, Match{Blip: idx.blips[i], Score: score})
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		va, vb := volumeNumber(matches[a].Volume), volumeNumber(matches[b].Volume)
		if va != vb {
			return va > vb
		}
		return matches[a].Name < matches[b].Name
	})
	if len(matches) == 0 {
		return nil
	}
	return matches
}

// addOverlapCandidates asks bleve for names sharing significant tokens
// with the query and scores them between the floor and scoreOverlapMax by
// token-overlap ratio. Entries already scored by a higher tier are kept.
func (idx *Index) addOverlapCandidates(rawQuery, normalized string, scores map[int]float64) {
	mq := bleve.NewMatchQuery(rawQuery)
	mq.SetField("name")
	req := bleve.NewSearchRequestOptions(mq, overlapCandidates, 0, false)
	res, err := idx.text.Search(req)
	if err != nil {
		return
	}
	queryTokens := significantTokens(normalized)
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(idx.blips) {
			continue
		}
		if _, seen := scores[i]; seen {
			continue
		}
		ratio := overlapRatio(queryTokens, significantTokens(strings.ToLower(idx.blips[i].Name)))
		scores[i] = scoreFloor + (scoreOverlapMax-scoreFloor)*ratio
	}
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "for": true, "in": true,
	"of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true,
}

func significantTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) > 1 && !stopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// overlapRatio is shared tokens over the smaller token set, so a full
// subset counts as a complete overlap.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	shared := 0
	for _, t := range b {
		if set[t] {
			shared++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}
