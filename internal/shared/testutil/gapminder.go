package testutil

import (
	"strconv"
	"strings"
	"testing"

	"groupagg/internal/table"
)

// GapminderRow is one country-year observation of the fixture.
type GapminderRow struct {
	Country   string
	Continent string
	Year      float64
	LifeExp   float64
}

// Gapminder is a small excerpt of the gapminder life-expectancy data set.
// Countries appear in the order Canada, Mexico, Japan, China, Kenya, so the
// continents appear as Americas, Asia, Africa.
var Gapminder = []GapminderRow{
	{"Canada", "Americas", 1952, 68.75},
	{"Canada", "Americas", 1957, 69.96},
	{"Canada", "Americas", 1962, 71.3},
	{"Canada", "Americas", 2007, 80.653},
	{"Mexico", "Americas", 1952, 50.789},
	{"Mexico", "Americas", 1957, 55.19},
	{"Mexico", "Americas", 1962, 58.299},
	{"Mexico", "Americas", 2007, 76.195},
	{"Japan", "Asia", 1952, 63.03},
	{"Japan", "Asia", 1957, 65.5},
	{"Japan", "Asia", 1962, 68.73},
	{"Japan", "Asia", 2007, 82.603},
	{"China", "Asia", 1952, 44},
	{"China", "Asia", 1957, 50.54896},
	{"China", "Asia", 1962, 44.50136},
	{"China", "Asia", 2007, 72.961},
	{"Kenya", "Africa", 1952, 42.27},
	{"Kenya", "Africa", 1957, 44.686},
	{"Kenya", "Africa", 1962, 47.949},
	{"Kenya", "Africa", 2007, 54.11},
}

// GapminderContinents holds the continent levels in sorted order.
var GapminderContinents = table.MustLevels("Africa", "Americas", "Asia")

// GapminderTable builds the fixture as a table with columns country (text),
// continent (factor), year and lifeExp. Rows for which keep returns false are
// skipped; a nil keep retains every row.
func GapminderTable(t testing.TB, keep func(GapminderRow) bool) *table.Table {
	t.Helper()

	tbl, err := table.New([]table.Column{
		{Name: "country", Kind: table.KindText},
		{Name: "continent", Kind: table.KindFactor, Levels: GapminderContinents},
		{Name: "year", Kind: table.KindNumber},
		{Name: "lifeExp", Kind: table.KindNumber},
	})
	if err != nil {
		t.Fatalf("failed to create gapminder table: %v", err)
	}
	for _, r := range Gapminder {
		if keep != nil && !keep(r) {
			continue
		}
		row := table.Row{
			table.Text(r.Country),
			GapminderContinents.MustValue(r.Continent),
			table.Number(r.Year),
			table.Number(r.LifeExp),
		}
		if err := tbl.Append(row); err != nil {
			t.Fatalf("failed to append gapminder row: %v", err)
		}
	}
	return tbl
}

// GapminderCSV renders the fixture as comma-separated text with a header.
func GapminderCSV() string {
	var sb strings.Builder
	sb.WriteString("country,continent,year,lifeExp\n")
	for _, r := range Gapminder {
		sb.WriteString(r.Country)
		sb.WriteByte(',')
		sb.WriteString(r.Continent)
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(r.Year, 'f', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(r.LifeExp, 'f', -1, 64))
		sb.WriteByte('\n')
	}
	return sb.String()
}
