package logic

import (
	"testing"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMember(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)

	created, err := m.Create(100, "root", nil)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Create(101, "child", ref(100))
	require.NoError(t, err)
	assert.True(t, created)

	child, err := m.Get(101)
	require.NoError(t, err)
	require.NotNil(t, child.ReferrerId)
	assert.Equal(t, int64(100), *child.ReferrerId)
	assert.Equal(t, "100", child.LevelPath)

	root, err := m.Get(100)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
}

func TestCreateMemberRejectsSelfReferral(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)

	_, err := m.Create(100, "selfie", ref(100))
	assert.ErrorIs(t, err, errs.ErrInsufficientInput)

	// 拒绝后不应有任何落库
	_, err = m.Get(100)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateMemberUnknownReferrerFallsBackToRoot(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)

	created, err := m.Create(100, "orphan", ref(999))
	require.NoError(t, err)
	assert.True(t, created)

	member, err := m.Get(100)
	require.NoError(t, err)
	assert.True(t, member.IsRoot())
}

func TestCreateMemberDuplicateLoses(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)

	_, err := m.Create(100, "root", nil)
	require.NoError(t, err)
	_, err = m.Create(200, "first", ref(100))
	require.NoError(t, err)

	// 同ID重复创建输家观察到 false，已有推荐边不被改写
	created, err := m.Create(200, "second", nil)
	require.NoError(t, err)
	assert.False(t, created)

	member, err := m.Get(200)
	require.NoError(t, err)
	assert.Equal(t, "first", member.Username)
	require.NotNil(t, member.ReferrerId)
	assert.Equal(t, int64(100), *member.ReferrerId)
}

func TestUpdateMemberWhitelist(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)
	seedMember(t, db, 100, nil)

	err := m.Update(100, map[string]interface{}{"balance": 999})
	assert.ErrorIs(t, err, errs.ErrInsufficientInput)

	err = m.Update(100, map[string]interface{}{
		"is_group_bound": true,
		"group_link":     "https://t.me/+abc",
	})
	require.NoError(t, err)

	member, err := m.Get(100)
	require.NoError(t, err)
	assert.True(t, member.IsGroupBound)
	assert.Equal(t, "https://t.me/+abc", member.GroupLink)

	err = m.Update(999, map[string]interface{}{"username": "ghost"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdateMemberVipOnlyUpgrades(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)
	seedMember(t, db, 100, nil, func(mm *model.Member) { mm.IsVip = true })

	// 降级请求被静默忽略
	require.NoError(t, m.Update(100, map[string]interface{}{"is_vip": false}))
	member, err := m.Get(100)
	require.NoError(t, err)
	assert.True(t, member.IsVip)
}

func TestCreditWritesLedger(t *testing.T) {
	db := newTestDB(t)
	m := NewMemberLogic(db)
	seedMember(t, db, 100, nil)

	balance, err := m.Credit(100, 2.5, 1, 200, "ord-1", "第 1 层升级奖励")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, balance, 1e-9)

	member, err := m.Get(100)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, member.Balance, 1e-9)
	assert.InDelta(t, 2.5, member.TotalEarned, 1e-9)

	var records []model.EarningsRecord
	require.NoError(t, db.Where("order_no = ?", "ord-1").Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, int64(200), records[0].FromMemberId)
	assert.Equal(t, 1, records[0].Level)
	assert.False(t, records[0].Missed)

	_, err = m.Credit(100, 0, 1, 200, "ord-2", "")
	assert.ErrorIs(t, err, errs.ErrInsufficientInput)
	_, err = m.Credit(999, 1, 1, 200, "ord-3", "")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
