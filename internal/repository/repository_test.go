package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pharmacy-ops/backend/internal/model"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestReplaceBonusBatch_SingleTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayrollRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "support_staff_bonus" WHERE store_id = $1 AND year_month = $2`)).
		WithArgs("store-1", "202403").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "support_staff_bonus"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1").AddRow("b-2"))
	mock.ExpectCommit()

	rows := []model.SupportStaffBonus{
		{EmployeeCode: "E1", EmployeeName: "甲", StoreID: "store-1", YearMonth: "202403", Amount: decimal.NewFromInt(100), CreatedBy: "u-1"},
		{EmployeeCode: "E2", EmployeeName: "乙", StoreID: "store-1", YearMonth: "202403", Amount: decimal.NewFromInt(200), CreatedBy: "u-1"},
	}
	require.NoError(t, repo.ReplaceBonusBatch(context.Background(), "store-1", "202403", rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceBonusBatch_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayrollRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "support_staff_bonus"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "support_staff_bonus"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	rows := []model.SupportStaffBonus{{EmployeeCode: "E1", StoreID: "store-1", YearMonth: "202403", CreatedBy: "u-1"}}
	err := repo.ReplaceBonusBatch(context.Background(), "store-1", "202403", rows)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet(), "删除与插入必须在同一事务内，失败时整体回滚")
}

func TestReplaceBonusBatch_EmptyClears(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayrollRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "support_staff_bonus"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceBonusBatch(context.Background(), "store-1", "202403", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertTransportExpense_OnConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayrollRepo(db)

	mock.ExpectQuery(`INSERT INTO "transport_expenses" .* ON CONFLICT \("employee_code","store_id","year_month"\) DO UPDATE SET`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-1"))

	row := &model.TransportExpense{EmployeeCode: "E1", EmployeeName: "甲", StoreID: "store-1", YearMonth: "202403", Trips: 4, Amount: decimal.NewFromInt(80), UpdatedBy: "u-1"}
	require.NoError(t, repo.UpsertTransportExpense(context.Background(), row))
	assert.Equal(t, "t-1", row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionDelete_ResultsThenMaster(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInspectionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "inspection_results" WHERE inspection_id = $1`)).
		WithArgs("insp-1").
		WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "inspection_masters" WHERE id = $1`)).
		WithArgs("insp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "insp-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInspectionDelete_MissingMasterRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInspectionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "inspection_results"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "inspection_masters"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplacePrimaryStoreManager_Transaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStoreRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "store_managers" WHERE user_id = $1 AND role_type = $2 AND is_primary = $3`)).
		WithArgs("u-1", model.StoreRoleStoreManager, true).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "store_managers"`) +
		`.*` + regexp.QuoteMeta(`ON CONFLICT ("user_id","store_id","role_type") DO UPDATE SET "is_primary"=$`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplacePrimaryStoreManager(context.Background(), "u-1", []string{"s-1", "s-2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskTemplateUpdate_OptimisticLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskTemplateRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "task_templates" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tpl := &model.TaskTemplate{ID: "tpl-1", Title: "t", Steps: model.StepList{{ID: "s1", Title: "a"}}}
	tpl.Version = 3
	err := repo.Update(context.Background(), tpl)
	assert.Equal(t, pkgerrors.ErrOptimisticLock, err)
	assert.Equal(t, 3, tpl.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskTemplateUpdate_BumpsVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskTemplateRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "task_templates" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tpl := &model.TaskTemplate{ID: "tpl-1", Title: "t", Steps: model.StepList{{ID: "s1", Title: "a"}}}
	tpl.Version = 3
	require.NoError(t, repo.Update(context.Background(), tpl))
	assert.Equal(t, 4, tpl.Version)
}

func TestListAssignments_ParticipantIncludesCollaborators(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskAssignmentRepo(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "task_assignments" WHERE \(assigned_to = \$1 OR id IN \(SELECT .*assignment_id.* FROM "task_collaborators" WHERE user_id = \$2\)\)`).
		WithArgs("u-1", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "task_assignments" WHERE \(assigned_to = \$1 OR id IN`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, total, err := repo.List(context.Background(), AssignmentFilter{Participant: "u-1"}, 0, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendLog_BuildsEntryUnderLock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskAssignmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "task_assignments" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("a-1", string(model.AssignmentInProgress)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "task_logs" WHERE assignment_id = $1 ORDER BY created_at ASC, id ASC`)).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "step_id", "action"}).
			AddRow(1, "a-1", "s1", model.LogActionComplete))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "task_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	var seen int
	build := func(prior []model.TaskLog) *model.TaskLog {
		seen = len(prior)
		return &model.TaskLog{UserID: "u-1", StepID: "s1", Action: model.LogActionUncomplete}
	}
	derive := func(a *model.TaskAssignment, _ []model.TaskLog) StatusChange {
		return StatusChange{Status: a.Status, CompletedAt: a.CompletedAt}
	}

	a, logs, err := repo.AppendLog(context.Background(), "a-1", build, derive)
	require.NoError(t, err)
	assert.Equal(t, 1, seen, "构造日志时应能看到行锁内读取的已有日志")
	require.Len(t, logs, 2)
	assert.Equal(t, "a-1", logs[1].AssignmentID)
	assert.Equal(t, model.LogActionUncomplete, logs[1].Action)
	assert.Equal(t, model.AssignmentInProgress, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
