// Package models defines domain entities and persistence interfaces for the cinesync client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the WebDavHub backend and metadata providers
//   - [ConfigItem] : one configuration setting with its current value and metadata
//   - [ConfigUpdate] : one record of a batched configuration update
//   - [ConfigStatus] : placeholder and destination directory health flags
//   - [BannerResult] : the outcome of a successful banner lookup
//
// 2. Persistent Entities: database-backed models
//   - [PersistedBanner] : a resolved banner cached locally with its lookup target
//   - [ConfigSave] : an audit record of a submitted configuration batch
//
// [PendingChanges] is the client-side diff of proposed against baseline values.
// It is owned by the settings session and never persisted.
//
// All persistent entities implement the Model interface providing ID, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
