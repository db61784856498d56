package index

import (
	"context"
	"database/sql/driver"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metagen/compiler/errors"
	"github.com/conduit-lang/metagen/internal/compiler/meta"
)

func testContainer(t *testing.T) *meta.Container {
	t.Helper()
	c := meta.NewContainer()
	require.NoError(t, c.Add(&meta.InterfaceMeta{BaseClassMeta: meta.BaseClassMeta{
		Base: meta.Base{Name: meta.FQName{Name: "NSObject", Module: "ObjectiveC.NSObject"}},
		InstanceMethods: []*meta.MethodMeta{
			{Selector: "init", JsName: "init", Signature: []meta.Type{meta.InstanceType()}},
		},
		StaticMethods: []*meta.MethodMeta{
			{Selector: "alloc", JsName: "alloc", Signature: []meta.Type{meta.InstanceType()}},
		},
		Properties: []*meta.PropertyMeta{{Name: "hash", JsName: "hash"}},
	}}))
	require.NoError(t, c.Add(&meta.FunctionMeta{
		Base:      meta.Base{Name: meta.FQName{Name: "NSLog", Module: "Foundation.NSObjCRuntime"}, MetaFlags: meta.FlagFunctionIsVariadic},
		Signature: []meta.Type{meta.Void()},
	}))
	return c
}

func TestStore_RecordRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runID := uuid.New()
	id := runID.String()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(id, sqlmock.AnyArg(), 2, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO symbols`).
		WithArgs(id, "ObjectiveC.NSObject", "NSObject", "interface", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO members`).
		WithArgs(id, "ObjectiveC.NSObject", "NSObject", MemberInstance, "init", "init").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO members`).
		WithArgs(id, "ObjectiveC.NSObject", "NSObject", MemberStatic, "alloc", "alloc").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO members`).
		WithArgs(id, "ObjectiveC.NSObject", "NSObject", MemberProperty, "hash", "hash").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO symbols`).
		WithArgs(id, "Foundation.NSObjCRuntime", "NSLog", "function", int(meta.FlagFunctionIsVariadic)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewStore(db).RecordRun(context.Background(), runID, testContainer(t)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordRun_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO runs`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO symbols`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewStore(db).RecordRun(context.Background(), uuid.New(), testContainer(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).WillReturnResult(driver.ResultNoRows)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS symbols`).WillReturnResult(driver.ResultNoRows)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS members`).WillReturnResult(driver.ResultNoRows)
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS symbols_name`).WillReturnResult(driver.ResultNoRows)

	require.NoError(t, NewStore(db).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindSymbols(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	runID := uuid.New()
	mock.ExpectQuery(`SELECT module, name, kind, flags FROM symbols`).
		WithArgs(runID.String(), "NSLog").
		WillReturnRows(sqlmock.NewRows([]string{"module", "name", "kind", "flags"}).
			AddRow("Foundation.NSObjCRuntime", "NSLog", "function", 1))

	syms, err := NewStore(db).FindSymbols(context.Background(), runID, "NSLog")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, Symbol{Module: "Foundation.NSObjCRuntime", Name: "NSLog", Kind: "function", Flags: meta.FlagFunctionIsVariadic}, syms[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LatestRun_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, created_at, modules, symbols FROM runs`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "modules", "symbols"}))

	_, err = NewStore(db).LatestRun(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generation run")
}

func TestStore_SQLite(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer store.Close()

	runID := uuid.New()
	require.NoError(t, store.RecordRun(ctx, runID, testContainer(t)))

	run, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, runID, run.ID)
	assert.Equal(t, 2, run.Modules)
	assert.Equal(t, 2, run.Symbols)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)

	syms, err := store.FindSymbols(ctx, runID, "NSObject")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "interface", syms[0].Kind)

	var members int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE owner = ?`, "NSObject").Scan(&members))
	assert.Equal(t, 3, members)
}

func TestStore_NamesAndMembers(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer store.Close()

	runID := uuid.New()
	require.NoError(t, store.RecordRun(ctx, runID, testContainer(t)))

	names, err := store.Names(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"NSLog", "NSObject"}, names)

	members, err := store.Members(ctx, runID, "ObjectiveC.NSObject", "NSObject")
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{Kind: MemberInstance, Selector: "init", JsName: "init"},
		{Kind: MemberProperty, Selector: "hash", JsName: "hash"},
		{Kind: MemberStatic, Selector: "alloc", JsName: "alloc"},
	}, members)

	none, err := store.Members(ctx, uuid.New(), "ObjectiveC.NSObject", "NSObject")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Names_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT DISTINCT name FROM symbols`).WillReturnError(errors.New("no such table: symbols"))

	_, err = NewStore(db).Names(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying symbol names")
	assert.NoError(t, mock.ExpectationsWereMet())
}
