package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/samber/lo"
)

// ReadJSON reads an array of objects keyed by column name. Numbers keep
// their literal text so amounts are not rounded through float64.
func ReadJSON(r io.Reader) ([][]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var objs []map[string]any
	if err := dec.Decode(&objs); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	keys := lo.Uniq(lo.FlatMap(objs, func(o map[string]any, _ int) []string {
		return lo.Keys(o)
	}))
	sort.Strings(keys)

	table := make([][]string, 0, len(objs)+1)
	table = append(table, keys)
	for _, o := range objs {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = jsonCell(o[k])
		}
		table = append(table, row)
	}
	return table, nil
}

func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
