package repositories

import (
	"regexp"
	"strings"
	"testing"
)

// fusedKeyword catches a lowercase identifier running straight into an SQL
// keyword, which happens when two concatenated fragments both forget the
// separating whitespace ("created_atFROM").
var fusedKeyword = regexp.MustCompile(`[a-z0-9_)](SELECT|FROM|WHERE|AND|OR|ORDER|GROUP|SET|VALUES|RETURNING)\b`)

func assertWellFormedSelect(t *testing.T, query string) {
	t.Helper()
	if m := fusedKeyword.FindString(query); m != "" {
		t.Fatalf("keyword fused to identifier (%q) in query:\n%s", m, query)
	}
	if !regexp.MustCompile(`(?s)SELECT\s.*\sFROM users\b`).MatchString(query) {
		t.Fatalf("query does not read SELECT ... FROM users:\n%s", query)
	}
}

func TestUserSelectQueries(t *testing.T) {
	queries := map[string]string{
		"by id":          getUserByIDQuery,
		"by email":       getUserByEmailQuery,
		"regenerable":    listRegenerableQuery,
		"points bounded": listUsersByPointsQuery(true),
		"points unbound": listUsersByPointsQuery(false),
	}

	for name, query := range queries {
		t.Run(name, func(t *testing.T) {
			assertWellFormedSelect(t, query)
		})
	}
}

// The column list feeds scanUser positionally; both must name the same twelve
// columns in the same order.
func TestUserSelectColumnOrder(t *testing.T) {
	wantColumns := []string{
		"id", "username", "email", "password_hash", "role", "points", "streak",
		"current_lives", "max_lives", "last_regeneration", "regeneration_rate", "created_at",
	}

	start := strings.Index(selectUserBase, "SELECT")
	end := strings.Index(selectUserBase, "FROM")
	if start == -1 || end == -1 || end < start {
		t.Fatalf("cannot locate column list in:\n%s", selectUserBase)
	}
	raw := strings.Split(selectUserBase[start+len("SELECT"):end], ",")
	if len(raw) != len(wantColumns) {
		t.Fatalf("selects %d columns, want %d", len(raw), len(wantColumns))
	}
	for i, col := range raw {
		if got := strings.TrimSpace(col); got != wantColumns[i] {
			t.Fatalf("column %d = %q, want %q", i, got, wantColumns[i])
		}
	}
}

func TestListUsersByPointsQueryVariants(t *testing.T) {
	bounded := listUsersByPointsQuery(true)
	unbounded := listUsersByPointsQuery(false)

	if !strings.Contains(bounded, "points <= $2") {
		t.Fatalf("bounded variant lost its ceiling clause:\n%s", bounded)
	}
	if strings.Contains(unbounded, "$2") {
		t.Fatalf("unbounded variant references $2 with one argument:\n%s", unbounded)
	}
	for _, query := range []string{bounded, unbounded} {
		if !strings.HasSuffix(query, `ORDER BY points DESC, id ASC`) {
			t.Fatalf("deterministic ordering clause missing:\n%s", query)
		}
	}
}
