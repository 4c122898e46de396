// Package storage persists component values in SQLite.
//
// A Store keeps JSON values keyed by (scope, key). The schema ships as
// embedded migrations applied by OpenStore. Host publishes the store to
// components as the storage.get, storage.set, storage.delete and
// storage.keys host methods, scoped by the calling component's path so a
// component only sees its own values.
package storage
