package stage

import (
	"fmt"
	"strings"
)

func quoteIdent(s string) string {
	return "`" + s + "`"
}

func CreateDatabaseSQL(schema string) string {
	return fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s;", quoteIdent(schema))
}

func DropTableSQL(t Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", t.Qualified())
}

// CreateTableSQL renders the staging table: every column TEXT, no keys, no
// constraints. Typing happens downstream of staging.
func CreateTableSQL(t Table) string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, "    "+quoteIdent(c)+" TEXT")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", t.Qualified(), strings.Join(cols, ",\n"))
}

// LoadInfileSQL renders the bulk load of one dump file. MySQL does not
// accept a placeholder for the file name, so the escaped path is written
// into the statement; the driver additionally only streams registered paths.
func LoadInfileSQL(t Table, path string) string {
	quoted := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		quoted = append(quoted, quoteIdent(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LOAD DATA LOCAL INFILE '%s' INTO TABLE %s\n", escapePath(path), t.Qualified())
	fmt.Fprintf(&b, "FIELDS TERMINATED BY %s\n", delimLiteral(t.Delimiter))
	b.WriteString("LINES TERMINATED BY '\\n'\n")
	b.WriteString("IGNORE 1 ROWS\n")
	fmt.Fprintf(&b, "(%s);", strings.Join(quoted, ", "))
	return b.String()
}

func delimLiteral(r rune) string {
	if r == '\t' {
		return `'\t'`
	}
	return "'" + string(r) + "'"
}

func escapePath(p string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(p)
}

// escapeLike makes a search prefix literal inside a LIKE pattern. '|' is the
// escape character because it reads the same on every backend.
func escapeLike(s string) string {
	return strings.NewReplacer("|", "||", "%", "|%", "_", "|_").Replace(s)
}
