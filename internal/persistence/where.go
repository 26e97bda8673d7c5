package persistence

import "strings"

// whereBuilder accumulates conjunctive conditions for an entity's
// FindByFilter query — every XxxFilter's translation into a WHERE
// clause goes through this same small builder.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) eqString(col string, v *string) {
	if v == nil {
		return
	}
	w.conds = append(w.conds, col+" = ?")
	w.args = append(w.args, *v)
}

func (w *whereBuilder) eqInt64(col string, v *int64) {
	if v == nil {
		return
	}
	w.conds = append(w.conds, col+" = ?")
	w.args = append(w.args, *v)
}

func (w *whereBuilder) eqBool(col string, v *bool) {
	if v == nil {
		return
	}
	w.conds = append(w.conds, col+" = ?")
	w.args = append(w.args, *v)
}

func (w *whereBuilder) gte(col string, v *int64) {
	if v == nil {
		return
	}
	w.conds = append(w.conds, col+" >= ?")
	w.args = append(w.args, *v)
}

func (w *whereBuilder) lte(col string, v *int64) {
	if v == nil {
		return
	}
	w.conds = append(w.conds, col+" <= ?")
	w.args = append(w.args, *v)
}

// build renders the accumulated conditions as " WHERE a = ? AND b >= ?"
// (with a leading space) or "" if no conditions were added.
func (w *whereBuilder) build() (string, []any) {
	if len(w.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conds, " AND "), w.args
}
