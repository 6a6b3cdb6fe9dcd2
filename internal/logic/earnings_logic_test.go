package logic

import (
	"testing"

	"github.com/blues/fsb/internal/errs"
	"github.com/blues/fsb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTotalEarnedExcludesMissed(t *testing.T) {
	db := newTestDB(t)
	e := NewEarningsLogic(db)
	m := NewMemberLogic(db)

	seedMember(t, db, 1, nil)

	_, err := m.Credit(1, 2, 1, 9, "ord-1", "")
	require.NoError(t, err)
	_, err = m.Credit(1, 1.5, 2, 9, "ord-2", "")
	require.NoError(t, err)

	// 错失分录不计入实收
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return addMissedTx(tx, 1, 3, 1, 9, "ord-3", "未绑定群")
	}))

	total, err := e.TotalEarned(1)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, total, 1e-9)

	records, total2, err := e.ListByMember(1, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total2)
	assert.Len(t, records, 3)
}

func TestCorrectWritesCompensatingEntry(t *testing.T) {
	db := newTestDB(t)
	e := NewEarningsLogic(db)

	seedMember(t, db, 1, nil, func(m *model.Member) { m.Balance = 10 })

	require.NoError(t, e.Correct(1, 2.5, "补发漏算奖励"))
	require.NoError(t, e.Correct(1, -1, "误发回收"))

	var m model.Member
	require.NoError(t, db.First(&m, 1).Error)
	assert.InDelta(t, 11.5, m.Balance, 1e-9)

	var records []model.EarningsRecord
	require.NoError(t, db.Where("member_id = ?", 1).Find(&records).Error)
	assert.Len(t, records, 2)

	// 余额不足的负向更正被拒绝，不留分录
	err := e.Correct(1, -100, "过量回收")
	assert.ErrorIs(t, err, errs.ErrConflict)

	err = e.Correct(1, 0, "空更正")
	assert.ErrorIs(t, err, errs.ErrInsufficientInput)
}
