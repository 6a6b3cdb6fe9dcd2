package logic

import (
	"testing"

	"github.com/blues/fsb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedChain 种一条 1←2←3←4 的推荐链，返回链尾会员
func seedChain(t *testing.T, db *gorm.DB) *model.Member {
	t.Helper()
	seedMember(t, db, 1, nil)
	seedMember(t, db, 2, ref(1))
	seedMember(t, db, 3, ref(2))
	return seedMember(t, db, 4, ref(3))
}

func TestUplineChainFullDepth(t *testing.T) {
	db := newTestDB(t)
	tree := NewTreeLogic(db)
	tail := seedChain(t, db)

	chain, err := tree.UplineChain(tail, 3)
	require.NoError(t, err)
	require.Len(t, chain, 3)

	for i, wantId := range []int64{3, 2, 1} {
		entry := chain[i]
		assert.Equal(t, i+1, entry.Level)
		require.NotNil(t, entry.Member)
		assert.Equal(t, wantId, entry.Member.Id)
		assert.Nil(t, entry.Fallback)
	}
}

func TestUplineChainFillsFallbacks(t *testing.T) {
	db := newTestDB(t)
	tree := NewTreeLogic(db)
	fallback := NewFallbackLogic(db)

	seedMember(t, db, 1, nil)
	tail := seedMember(t, db, 2, ref(1))

	fa, err := fallback.Create("fb-a", "")
	require.NoError(t, err)
	fb, err := fallback.Create("fb-b", "")
	require.NoError(t, err)
	// 停用的保底账户不参与顶替
	require.NoError(t, fallback.Deactivate(fb.Id))

	chain, err := tree.UplineChain(tail, 3)
	require.NoError(t, err)
	require.Len(t, chain, 3)

	require.NotNil(t, chain[0].Member)
	assert.Equal(t, int64(1), chain[0].Member.Id)

	require.NotNil(t, chain[1].Fallback)
	assert.Equal(t, fa.Id, chain[1].Fallback.Id)
	assert.Equal(t, 2, chain[1].Level)

	// 保底账户用尽后填哨兵位
	assert.True(t, chain[2].IsSentinel())
	assert.Equal(t, 3, chain[2].Level)
}

func TestUplineChainRootMember(t *testing.T) {
	db := newTestDB(t)
	tree := NewTreeLogic(db)
	root := seedMember(t, db, 1, nil)

	chain, err := tree.UplineChain(root, 3)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	for _, entry := range chain {
		assert.True(t, entry.IsSentinel())
	}
}

func TestDownlineTreeAndTeamStats(t *testing.T) {
	db := newTestDB(t)
	tree := NewTreeLogic(db)

	seedMember(t, db, 1, nil)
	seedMember(t, db, 2, ref(1), func(m *model.Member) { m.IsVip = true })
	seedMember(t, db, 3, ref(1))
	seedMember(t, db, 4, ref(2), func(m *model.Member) { m.IsVip = true })
	seedMember(t, db, 5, ref(4)) // 第3层，n=2 时不计入

	downline, err := tree.DownlineTree(1, 2)
	require.NoError(t, err)
	assert.Len(t, downline[1], 2)
	assert.Len(t, downline[2], 1)
	assert.Empty(t, downline[3])

	stats, err := tree.TeamStats(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DirectCount)
	assert.Equal(t, 3, stats.TeamCount)
	assert.Equal(t, 2, stats.VipCount)
}

func TestRefreshLevelPathRootFirst(t *testing.T) {
	db := newTestDB(t)
	tree := NewTreeLogic(db)
	tail := seedChain(t, db)

	require.NoError(t, tree.RefreshLevelPath(tail.Id))

	var member model.Member
	require.NoError(t, db.First(&member, tail.Id).Error)
	assert.Equal(t, "1,2,3", member.LevelPath)

	require.NoError(t, tree.RefreshLevelPath(1))
	member = model.Member{}
	require.NoError(t, db.First(&member, 1).Error)
	assert.Equal(t, "", member.LevelPath)
}

func TestNthActiveFallback(t *testing.T) {
	db := newTestDB(t)
	fallback := NewFallbackLogic(db)

	fa, err := fallback.Create("fb-a", "")
	require.NoError(t, err)
	_, err = fallback.Create("fb-b", "")
	require.NoError(t, err)

	first, err := fallback.NthActive(0)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, fa.Id, first.Id)

	third, err := fallback.NthActive(2)
	require.NoError(t, err)
	assert.Nil(t, third)
}
