package repository

import (
	"testing"

	"TemplePlayer/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// dryRunDB builds statements without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/templeplayer?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true, DryRun: true})
	require.NoError(t, err)
	return gdb
}

func TestRecentQuery(t *testing.T) {
	gdb := dryRunDB(t)

	tests := []struct {
		limit int
		want  string
	}{
		{10, "LIMIT 10"},
		{0, "LIMIT 1"},
		{5000, "LIMIT 200"},
	}
	for _, tt := range tests {
		sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
			var out []model.PlayRecord
			return recentQuery(tx, tt.limit).Find(&out)
		})
		assert.Contains(t, sql, "FROM `play_history`")
		assert.Contains(t, sql, "ORDER BY played_at DESC, id DESC")
		assert.Contains(t, sql, tt.want)
	}
}

func TestSavePlayStatement(t *testing.T) {
	gdb := dryRunDB(t)
	sql := gdb.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Create(&model.PlayRecord{TrackID: "local:/a.mp3", ProviderID: "local", Title: "a"})
	})
	assert.Contains(t, sql, "INSERT INTO `play_history`")
	assert.Contains(t, sql, "local:/a.mp3")
}
