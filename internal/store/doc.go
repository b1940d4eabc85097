// Package store provides the in-memory record store behind the relay API.
//
// The store holds two tables, users and messages, keyed by integer id. Ids
// are slot indexes: a deleted record's id is handed to the next record
// inserted into the same table, most recently freed first.
//
// The main components are:
//
//   - [Store]: Interface defining queries and mutations
//   - [MemoryStore]: Implementation of Store guarded by a single lock
//   - [Table]: Slot table with id recycling
//   - [User], [Message]: Stored records
//
// The store never publishes events. Callers (the api package) publish a
// change event after a mutation succeeds, outside the store's lock.
package store
