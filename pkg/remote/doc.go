// Package remote transfers snapshots to and from object storage providers.
//
// A Config selects the provider by its storage tag. The Adapter uploads, downloads and
// deletes objects with retries, and Select decides which snapshots a push strategy uploads.
package remote
