// Package model defines the core data structures shared across the
// LinkLens pipeline: match records, the per-target match table, per-page
// scan outcomes, and the aggregate crawl report.
package model
