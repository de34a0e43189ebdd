package sqlbuild

import (
	"fmt"
	"strings"
)

// DefaultSuffixes disambiguate columns present in both merge inputs.
var DefaultSuffixes = [2]string{"_x", "_y"}

// Merge builds a CREATE TABLE/VIEW ... AS SELECT joining two tables on the
// given key columns. Columns appearing in both inputs (other than the join
// keys) are suffixed to keep the output unambiguous. cols1 and cols2 are the
// live column lists of the two inputs, as introspected by the caller.
func Merge(out string, kind ObjectKind, table1, table2 string, cols1, cols2 []string, on []string, suffixes [2]string) string {
	table1, table2, out = Qualify(table1), Qualify(table2), Qualify(out)

	keys := make(map[string]struct{}, len(on))
	for _, k := range on {
		keys[strings.ToLower(k)] = struct{}{}
	}
	shared := make(map[string]struct{})
	set1 := make(map[string]struct{}, len(cols1))
	for _, c := range cols1 {
		set1[c] = struct{}{}
	}
	for _, c := range cols2 {
		if _, ok := set1[c]; ok {
			shared[c] = struct{}{}
		}
	}

	var sel []string
	for _, c := range cols1 {
		expr := table1 + "." + c
		_, isShared := shared[c]
		if _, isKey := keys[c]; isShared && !isKey {
			expr += " AS " + c + suffixes[0]
		}
		sel = append(sel, expr)
	}
	for _, c := range cols2 {
		if _, isKey := keys[c]; isKey {
			continue
		}
		expr := table2 + "." + c
		if _, isShared := shared[c]; isShared {
			expr += " AS " + c + suffixes[1]
		}
		sel = append(sel, expr)
	}

	conds := make([]string, len(on))
	for i, k := range on {
		k = strings.ToLower(k)
		conds[i] = fmt.Sprintf("%s.%s = %s.%s", table1, k, table2, k)
	}

	return fmt.Sprintf("CREATE %s %s AS (\n  SELECT %s\n  FROM %s\n  JOIN %s ON %s\n);",
		kind, out, strings.Join(sel, ", "), table1, table2, strings.Join(conds, " AND "))
}
