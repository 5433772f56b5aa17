package store

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	defaultLimit = 100
	maxLimit     = 1000

	orderByProfile = "profile"
	orderByExpiry  = "expiry"
	orderByUpdated = "updated_at"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByProfile: "profile ASC",
	orderByExpiry:  "expiry ASC NULLS LAST",
	orderByUpdated: "updated_at DESC",
}

const defaultOrderBy = "profile ASC"

// TokenQuery defines optional filters for List.
type TokenQuery struct {
	ExpiringBefore *time.Time // only tokens with an expiry before this instant
	UserID         *string
	Profiles       []string
	Limit          int    // default 100
	OrderBy        string // "profile", "expiry", "updated_at"
}

func (q *TokenQuery) limit() int {
	if q == nil || q.Limit <= 0 {
		return defaultLimit
	}
	return min(q.Limit, maxLimit)
}

// ToSQL builds the WHERE clause, ORDER BY and LIMIT for a token query and
// returns the positional parameters.
func (q *TokenQuery) ToSQL() (sql string, args []any) {
	if q == nil {
		q = &TokenQuery{}
	}

	var conditions []string
	paramIdx := 1

	if q.ExpiringBefore != nil {
		conditions = append(conditions, fmt.Sprintf("expiry < $%d", paramIdx))
		args = append(args, *q.ExpiringBefore)
		paramIdx++
	}

	if q.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", paramIdx))
		args = append(args, *q.UserID)
		paramIdx++
	}

	if len(q.Profiles) > 0 {
		placeholders := make([]string, len(q.Profiles))
		for i, p := range q.Profiles {
			placeholders[i] = fmt.Sprintf("$%d", paramIdx)
			args = append(args, p)
			paramIdx++
		}
		conditions = append(conditions, fmt.Sprintf(
			"profile IN (%s)", strings.Join(placeholders, ", "),
		))
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	orderClause := defaultOrderBy
	if col, ok := validOrderBy[q.OrderBy]; ok {
		orderClause = col
	}

	sql = fmt.Sprintf("%s%s ORDER BY %s LIMIT %d",
		querySelectTokens, whereClause, orderClause, q.limit())

	return sql, args
}

// Matches applies the query filters to a single record.
func (q *TokenQuery) Matches(r *Record) bool {
	if q == nil {
		return true
	}
	if q.ExpiringBefore != nil {
		if r.Token.Expiry.IsZero() || !r.Token.Expiry.Before(*q.ExpiringBefore) {
			return false
		}
	}
	if q.UserID != nil && r.Token.UserID() != *q.UserID {
		return false
	}
	if len(q.Profiles) > 0 && !slices.Contains(q.Profiles, r.Profile) {
		return false
	}
	return true
}

// Apply filters, sorts and limits records in memory the way ToSQL does in
// the database.
func (q *TokenQuery) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for i := range records {
		if q.Matches(&records[i]) {
			out = append(out, records[i])
		}
	}

	orderBy := ""
	if q != nil {
		orderBy = q.OrderBy
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		switch orderBy {
		case orderByExpiry:
			return compareExpiry(a.Token.Expiry, b.Token.Expiry)
		case orderByUpdated:
			return b.UpdatedAt.Compare(a.UpdatedAt)
		default:
			return strings.Compare(a.Profile, b.Profile)
		}
	})

	if l := q.limit(); len(out) > l {
		out = out[:l]
	}
	return out
}

// compareExpiry sorts zero expiries last.
func compareExpiry(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	default:
		return a.Compare(b)
	}
}
