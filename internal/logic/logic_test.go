package logic

import (
	"testing"

	"github.com/blues/fsb/internal/database"
	"github.com/blues/fsb/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 内存SQLite测试库。SQLite不支持 FOR UPDATE，
// 查询前剥离行锁子句，测试内事务本就串行。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.Callback().Query().Before("gorm:query").
		Register("test:strip_locking", func(tx *gorm.DB) {
			delete(tx.Statement.Clauses, "FOR")
		})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	return db
}

func ref(id int64) *int64 {
	return &id
}

// seedMember 直接落库一个会员，绕过创建逻辑
func seedMember(t *testing.T, db *gorm.DB, id int64, referrerId *int64, mut ...func(*model.Member)) *model.Member {
	t.Helper()

	m := model.Member{
		Id:         id,
		Username:   "user" + string(rune('a'+id%26)),
		ReferrerId: referrerId,
	}
	for _, f := range mut {
		f(&m)
	}
	require.NoError(t, db.Create(&m).Error)
	return &m
}

// eligible 把会员标成完全合格领奖的状态
func eligible(m *model.Member) {
	m.IsVip = true
	m.IsGroupBound = true
	m.GroupLink = "https://t.me/+group"
	m.IsGroupAdmin = true
	m.IsJoinedUpline = true
}

func mustSet(t *testing.T, sysCfg *SysConfigLogic, key, value string) {
	t.Helper()
	require.NoError(t, sysCfg.Set(key, value))
}
