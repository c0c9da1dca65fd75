package datatable

import "fmt"

func keyTemplateFor(keyColumns, keyFields []string) (map[string]string, error) {
	if len(keyFields) != len(keyColumns) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrKeyLength, len(keyFields), len(keyColumns))
	}
	template := make(map[string]string, len(keyFields))
	for i, col := range keyColumns {
		template[col] = keyFields[i]
	}
	return template, nil
}

func keyValuesFor(keyColumns []string, row map[string]string) []string {
	vals := make([]string, 0, len(keyColumns))
	for _, col := range keyColumns {
		vals = append(vals, row[col])
	}
	return vals
}

func keyOfRow(keyColumns []string, row map[string]string) string {
	key := ""
	for _, col := range keyColumns {
		key += row[col] + "\x00"
	}
	return key
}

func touchesKeyCols(keyColumns []string, values map[string]string) bool {
	for _, col := range keyColumns {
		if _, ok := values[col]; ok {
			return true
		}
	}
	return false
}
