// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain types so that the domain stays free of
// ORM tags; each model converts to and from its domain counterpart.
//
//   - base.go: shared columns
//   - member.go: accounts and block records
//   - ledger.go: transactions, daily reward state, referral config and events
package models
