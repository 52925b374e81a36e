// Package queue persists audio files, embedding jobs, clustering jobs, and
// their results in SQLite, and owns every job status transition.
//
// The store is the only writer of job status fields. Workers obtain jobs
// through atomic claim operations, report outcomes through
// Complete/Fail/Cancel transitions, and abandoned work is returned to the
// queue by the stale sweep. Multiple processes may share one database; WAL
// mode, a busy timeout, and bounded retries on SQLITE_BUSY make concurrent
// claims safe.
package queue
