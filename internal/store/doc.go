// Package store groups the suppression store implementations. The contract
// (crawler.SuppressionStore) lives in the crawler package; subpackages hold the
// Redis-backed production store and an in-memory store for tests and dry runs.
package store
