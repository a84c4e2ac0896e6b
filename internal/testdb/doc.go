// Package testdb connects integration tests to a real Postgres database.
//
// Tests call Open to get a migrated connection and WithTx to run each case
// in a transaction that is rolled back afterwards, so cases can run in
// parallel against shared tables:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	    plans := postgres.NewPostgresPlanStore(tx, logger)
//	    ...
//	})
//
// Open skips the test when no database URL is configured. The URL is read
// from PLANNER_TEST_DATABASE_URL, then DATABASE_URL.
package testdb
