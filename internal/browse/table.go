// Package browse renders record rows as aligned text tables for the
// terminal front end.
package browse

import (
	"strings"

	"github.com/donald-f-ferguson/w4111-dataservice/internal/model"
	runewidth "github.com/mattn/go-runewidth"
)

// maxCellWidth keeps one long value from pushing the row off screen.
const maxCellWidth = 40

// Truncate shortens s to max display cells, ending in "..." when it
// cut something. Widths are display widths, so CJK names count double.
func Truncate(s string, max int) string {
	if max <= 0 || runewidth.StringWidth(s) <= max {
		return s
	}
	if max <= 3 {
		return runewidth.Truncate(s, max, "")
	}
	return runewidth.Truncate(s, max, "...")
}

// RenderTable renders a header, a separator, and one line per row.
// Columns give both the order and the header labels.
func RenderTable(columns []string, rows []map[string]string) string {
	if len(columns) == 0 {
		return ""
	}

	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = runewidth.StringWidth(col)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			cell := Truncate(row[col], maxCellWidth)
			line[i] = cell
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
		cells[r] = line
	}

	var sb strings.Builder
	writeLine := func(line []string) {
		for i, cell := range line {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 && i < len(line)-1 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
		}
		sb.WriteString("\n")
	}

	writeLine(columns)
	sep := make([]string, len(columns))
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	writeLine(sep)
	for _, line := range cells {
		writeLine(line)
	}
	return sb.String()
}

// ArtistColumns is the rendering order for artist records.
var ArtistColumns = []string{"nconst", "primary_name", "birth_year", "death_year", "primary_profession", "known_for_titles"}

// PlayerColumns is the rendering order for player records.
var PlayerColumns = []string{"playerID", "nameFirst", "nameLast"}

// ArtistRows flattens artists for rendering.
func ArtistRows(artists []model.Artist) []map[string]string {
	rows := make([]map[string]string, 0, len(artists))
	for _, a := range artists {
		rows = append(rows, map[string]string{
			"nconst":             a.Nconst,
			"primary_name":       a.PrimaryName,
			"birth_year":         a.BirthYear,
			"death_year":         a.DeathYear,
			"primary_profession": a.PrimaryProfession,
			"known_for_titles":   a.KnownForTitles,
		})
	}
	return rows
}

// PlayerRows flattens players for rendering.
func PlayerRows(players []model.Player) []map[string]string {
	rows := make([]map[string]string, 0, len(players))
	for _, p := range players {
		rows = append(rows, map[string]string{
			"playerID":  p.PlayerID,
			"nameFirst": p.NameFirst,
			"nameLast":  p.NameLast,
		})
	}
	return rows
}
