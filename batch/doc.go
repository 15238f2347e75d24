// Package batch implements the portfolio embedding batch job.
//
// The job selects every portfolio that needs (re)processing, runs each one
// through the item processor under retry, and aggregates the per-item
// outcomes into a summary. Items are processed on a bounded worker pool and
// fail independently: one portfolio's permanent failure never aborts the
// run.
package batch
