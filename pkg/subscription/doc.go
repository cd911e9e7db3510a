// Package subscription tracks paid-subscriber records for the bot and makes
// the per-message gating decision.
//
// A Record is keyed by the LINE user ID and carries a paid flag plus an
// optional free-trial message counter. Records are created lazily on first
// contact; nothing ever deletes them, and the paid flag is only ever set by
// the billing webhook.
//
// Store is the persistence contract with two interchangeable backends: a
// single-file JSON store and a MongoDB collection. Service wraps a Store and
// answers the one question the relay needs per inbound message: does this
// user get a generated reply (paid or within the free trial) or a payment
// prompt.
//
// Concurrent writes to the same user have no ordering guarantee; the last
// writer wins. This mirrors the behavior of both backends and is acceptable
// because the only transitions are monotonic (unpaid -> paid, counter
// increments).
package subscription
