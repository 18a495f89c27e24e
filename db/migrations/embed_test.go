package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(FS, down)
		require.NoError(t, err, "missing %s", down)
	}
}

func TestApprovalFunctionsGuardPendingState(t *testing.T) {
	body, err := fs.ReadFile(FS, "000002_expense_approval.up.sql")
	require.NoError(t, err)
	sql := string(body)
	require.Contains(t, sql, "FUNCTION approve_expense_note(")
	require.Contains(t, sql, "FUNCTION reject_expense_note(")
	require.Equal(t, 2, strings.Count(sql, "ERRCODE = 'P0001'"))
}
