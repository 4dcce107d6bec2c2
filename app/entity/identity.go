package entity

import "database/sql"

// Table names one of the three identity tables. The values double as SQL
// table names, so only the constants below may ever reach a query.
type Table string

const (
	TableUsers Table = "users"
	TableStaff Table = "staff"
	TableAdmin Table = "admin"
)

// Tables lists the identity tables in reconciliation order.
var Tables = []Table{TableUsers, TableStaff, TableAdmin}

func ParseTable(s string) (Table, bool) {
	for _, t := range Tables {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Others returns the identity tables other than t, in reconciliation order.
func (t Table) Others() []Table {
	others := make([]Table, 0, len(Tables)-1)
	for _, other := range Tables {
		if other != t {
			others = append(others, other)
		}
	}
	return others
}

// Identity is the shape shared by users, staff and admin rows.
type Identity struct {
	ID    uint64
	Name  string
	Email sql.NullString
}
