package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTestDatabaseURL(t *testing.T) {
	tests := []struct {
		name   string
		testDB string
		dbURL  string
		want   string
	}{
		{"test database wins", "postgres://a", "postgres://b", "postgres://a"},
		{"falls back to DATABASE_URL", "", "postgres://b", "postgres://b"},
		{"none", "", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, name := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "TASKDUE_DATABASE_URL"} {
				t.Setenv(name, "")
			}
			t.Setenv("TASKDUE_TEST_DB_URL", tc.testDB)
			t.Setenv("DATABASE_URL", tc.dbURL)

			assert.Equal(t, tc.want, GetTestDatabaseURL())
			assert.Equal(t, tc.want != "", IsIntegrationTestEnvironment())
		})
	}
}
