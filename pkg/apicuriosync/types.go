package apicuriosync

import "github.com/bianoble/apicurio-sync/internal/engine"

// Type aliases re-export engine result types as the public API.

type FileAction = engine.FileAction
type EntryError = engine.EntryError
type EntryUpdate = engine.EntryUpdate
type EntryStatus = engine.EntryStatus
type UpdateResult = engine.UpdateResult
type SyncResult = engine.SyncResult
type InfoResult = engine.InfoResult
