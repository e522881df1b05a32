package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	schema "github.com/wuyiadepoju/payments-reconciliation/migrations"
)

func TestParseDDLStatements(t *testing.T) {
	sql := `
-- leading comment
CREATE TABLE a (
    id STRING(36) NOT NULL, -- inline comment
) PRIMARY KEY (id);

CREATE INDEX a_by_id ON a (id);
CREATE TABLE b (id INT64) PRIMARY KEY (id)
`
	statements := parseDDLStatements(sql)

	require.Len(t, statements, 3)
	assert.Equal(t, "CREATE TABLE a ( id STRING(36) NOT NULL, ) PRIMARY KEY (id)", statements[0])
	assert.Equal(t, "CREATE INDEX a_by_id ON a (id)", statements[1])
	assert.Equal(t, "CREATE TABLE b (id INT64) PRIMARY KEY (id)", statements[2])
}

func TestLoadStatements_FileOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE TABLE second (id INT64) PRIMARY KEY (id);")},
		"001_first.sql":  {Data: []byte("CREATE TABLE first (id INT64) PRIMARY KEY (id);")},
		"README.md":      {Data: []byte("not sql")},
	}

	statements, err := loadStatements(fsys)

	require.NoError(t, err)
	require.Len(t, statements, 2)
	assert.True(t, strings.Contains(statements[0], "first"))
	assert.True(t, strings.Contains(statements[1], "second"))
}

func TestLoadStatements_EmbeddedSchema(t *testing.T) {
	statements, err := loadStatements(schema.Files)
	require.NoError(t, err)

	var tables []string
	for _, stmt := range statements {
		assert.False(t, strings.HasSuffix(stmt, ";"))
		assert.Contains(t, stmt, "IF NOT EXISTS")
		if strings.HasPrefix(stmt, "CREATE TABLE") {
			tables = append(tables, strings.Fields(stmt)[5])
		}
	}
	assert.Equal(t, []string{"products", "orders", "order_items", "subscribers"}, tables)
}

func TestTarget_DatabasePath(t *testing.T) {
	target := Target{ProjectID: "p", InstanceID: "i", DatabaseID: "d"}
	assert.Equal(t, "projects/p/instances/i/databases/d", target.DatabasePath())
}
