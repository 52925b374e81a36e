// Package artifact writes and reads embedding datasets as Parquet files.
//
// Writers stage rows in a temp file next to the destination and publish
// with a single rename, so readers only ever observe complete files. A
// crash mid-write leaves at most a temp file behind; the destination path
// is never touched until the footer is finalized.
package artifact
