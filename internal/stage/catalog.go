package stage

import (
	"errors"
	"fmt"
)

const (
	SchemaImdb   = "imdbraw"
	SchemaLahman = "lahman2019raw"
)

// Identifier resolution errors. Anything that reaches SQL resolves against
// the catalog first; unknown names get one of these instead of a query.
var (
	ErrUnknownSchema = errors.New("unknown schema")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
)

// Table describes one staging table: where it lives, the dump file that
// feeds it, and the ordered columns of the raw data.
type Table struct {
	Schema    string
	Name      string
	File      string
	Delimiter rune
	Columns   []string
}

func (t Table) Key() string {
	return t.Schema + "." + t.Name
}

// Qualified renders the quoted table reference. Tests run against
// schemaless connections and leave Schema empty.
func (t Table) Qualified() string {
	if t.Schema == "" {
		return quoteIdent(t.Name)
	}
	return quoteIdent(t.Schema) + "." + quoteIdent(t.Name)
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Catalog is the authority on staging identifiers.
type Catalog struct {
	tables []Table
}

func NewCatalog() (*Catalog, error) {
	return &Catalog{
		tables: defaultTables(),
	}, nil
}

func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	copy(out, c.tables)
	return out
}

func (c *Catalog) Schemas() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, 2)
	for _, t := range c.tables {
		if !seen[t.Schema] {
			seen[t.Schema] = true
			out = append(out, t.Schema)
		}
	}
	return out
}

func (c *Catalog) Lookup(schema, table string) (Table, error) {
	schemaSeen := false
	for _, t := range c.tables {
		if t.Schema == schema {
			schemaSeen = true
			if t.Name == table {
				return t, nil
			}
		}
	}
	if !schemaSeen {
		return Table{}, fmt.Errorf("%w: %s", ErrUnknownSchema, schema)
	}
	return Table{}, fmt.Errorf("%w: %s.%s", ErrUnknownTable, schema, table)
}

// LookupColumn resolves schema, table and column in one step.
func (c *Catalog) LookupColumn(schema, table, column string) (Table, error) {
	t, err := c.Lookup(schema, table)
	if err != nil {
		return Table{}, err
	}
	if !t.HasColumn(column) {
		return Table{}, fmt.Errorf("%w: %s.%s.%s", ErrUnknownColumn, schema, table, column)
	}
	return t, nil
}

// LookupName finds a table by bare name across schemas. Names are unique in
// the catalog, so the first hit wins.
func (c *Catalog) LookupName(name string) (Table, error) {
	for _, t := range c.tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

func defaultTables() []Table {
	return []Table{
		{
			Schema:    SchemaImdb,
			Name:      "name_basics",
			File:      "name.basics.tsv",
			Delimiter: '\t',
			Columns: []string{
				"nconst", "primary_name", "birth_year", "death_year",
				"primary_profession", "known_for_titles",
			},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_basics",
			File:      "title.basics.tsv",
			Delimiter: '\t',
			Columns: []string{
				"tconst", "title_type", "primary_title", "original_title",
				"is_adult", "start_year", "end_year", "runtime_minutes", "genres",
			},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_akas",
			File:      "title.akas.tsv",
			Delimiter: '\t',
			Columns: []string{
				"title_id", "ordering", "title", "region", "language",
				"types", "attributes", "is_original_title",
			},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_crew",
			File:      "title.crew.tsv",
			Delimiter: '\t',
			Columns:   []string{"tconst", "directors", "writers"},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_episodes",
			File:      "title.episode.tsv",
			Delimiter: '\t',
			Columns:   []string{"tconst", "parent_tconst", "season_number", "episode_number"},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_principals",
			File:      "title.principals.tsv",
			Delimiter: '\t',
			Columns:   []string{"tconst", "ordering", "nconst", "category", "job", "characters"},
		},
		{
			Schema:    SchemaImdb,
			Name:      "title_ratings",
			File:      "title.ratings.tsv",
			Delimiter: '\t',
			Columns:   []string{"tconst", "average_rating", "num_votes"},
		},
		{
			Schema:    SchemaLahman,
			Name:      "people",
			File:      "People.csv",
			Delimiter: ',',
			Columns: []string{
				"playerID", "birthYear", "birthMonth", "birthDay",
				"birthCountry", "birthState", "birthCity",
				"deathYear", "deathMonth", "deathDay",
				"deathCountry", "deathState", "deathCity",
				"nameFirst", "nameLast", "nameGiven",
				"weight", "height", "bats", "throws",
				"debut", "finalGame", "retroID", "bbrefID",
			},
		},
	}
}
