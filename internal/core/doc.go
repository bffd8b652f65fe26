// Package core runs CSV and XML conversions as bounded jobs.
//
// The engines in the csv and xml packages are pure functions over in-memory
// text. This package is the layer around them that any frontend (the HTTP
// API, a CLI, tests) can use without modification.
//
// # Jobs
//
// Every [Service] operation runs as a job:
//
//  1. A job id (uuid) is assigned and attached to the context
//  2. A [Limiter] slot is acquired, waiting up to the configured time
//  3. Input bytes are normalized by [Decode] (BOM, UTF-16, UTF-8 checks)
//  4. The engine runs under the job timeout
//  5. Start and outcome are logged with the job id and client IP
//
// Table loads and exports additionally go through a [Store]; without one
// they fail with [ErrStoreUnavailable].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CSV001-CSV008: CSV dialect, syntax and coercion errors
//   - XML001-XML003: XML syntax and tree errors
//   - ENC001, CFG001: encoding and request option errors
//   - DB001-DB006: database availability, naming and constraint errors
//   - JOB001-JOB004: concurrency, cancellation, timeout and size errors
package core
