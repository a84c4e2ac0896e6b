// Package store declares the persistence contracts for courses, plans and
// plan entries, the sentinel errors every implementation returns, and the
// transaction helper the service layer uses for multi-row updates.
package store
