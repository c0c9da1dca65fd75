package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/donald-f-ferguson/w4111-dataservice/cfg"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/apiclient"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/browse"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/datatable"
	"github.com/donald-f-ferguson/w4111-dataservice/internal/stage"
	"github.com/donald-f-ferguson/w4111-dataservice/pkg/log"
)

func main() {
	resource := flag.String("resource", "artists", "What to search (artists, people, search)")
	schema := flag.String("schema", "imdbraw", "Schema for -resource=search")
	table := flag.String("table", "name_basics", "Table for -resource=search")
	column := flag.String("column", "primary_name", "Column for -resource=search")
	prefix := flag.String("prefix", "", "Search prefix (must be longer than the configured minimum)")
	limit := flag.Int("limit", 20, "Maximum rows to fetch")
	offset := flag.Int("offset", 0, "Rows to skip")
	file := flag.String("file", "", "Browse a local dump file instead of the API")
	delimiter := flag.String("delimiter", "tab", "Dump delimiter for -file (tab, comma, or a literal character)")
	match := flag.String("match", "", "Template for -file as field=value,field=value")
	flag.Parse()

	ctx := context.Background()
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, _ := log.NewCslLogger()

	if *file != "" {
		browseFile(ctx, *file, *delimiter, *match, *limit, *offset)
		return
	}

	caller := apiclient.NewCaller(logger, config)
	searcher := apiclient.NewSearcher(logger, config, caller)

	switch *resource {
	case "artists":
		artists, err := searcher.Artists(ctx, *prefix, *limit, *offset)
		exitOn(err)
		fmt.Print(browse.RenderTable(browse.ArtistColumns, browse.ArtistRows(artists)))
	case "people":
		players, err := searcher.PeopleByLastName(ctx, *prefix, *limit, *offset)
		exitOn(err)
		fmt.Print(browse.RenderTable(browse.PlayerColumns, browse.PlayerRows(players)))
	case "search":
		catalog, _ := stage.NewCatalog()
		tbl, err := catalog.Lookup(*schema, *table)
		exitOn(err)
		rows, err := searcher.Search(ctx, *schema, *table, *column, *prefix, *limit, *offset)
		exitOn(err)
		fmt.Print(browse.RenderTable(tbl.Columns, rows))
	default:
		fmt.Printf("Unknown resource %q\n", *resource)
		os.Exit(1)
	}
}

// browseFile renders rows from a local dump, no server involved.
func browseFile(ctx context.Context, path, delimiter, match string, limit, offset int) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	table, err := datatable.NewCSVTable(name, path, delimRune(delimiter), nil)
	exitOn(err)

	template, err := parseTemplate(match)
	exitOn(err)

	rows, err := table.FindByTemplate(ctx, template, nil, limit, offset)
	exitOn(err)
	fmt.Print(browse.RenderTable(table.Columns(), rows))
}

func parseTemplate(match string) (map[string]string, error) {
	template := map[string]string{}
	if match == "" {
		return template, nil
	}
	for _, pair := range strings.Split(match, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("bad template entry %q, want field=value", pair)
		}
		template[kv[0]] = kv[1]
	}
	return template, nil
}

func delimRune(s string) rune {
	switch s {
	case "", "tab", "\\t", "\t":
		return '\t'
	case "comma", ",":
		return ','
	default:
		return []rune(s)[0]
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
