// Package model describes the base objects manipulated by yap.
//
// The object model for yap is composed of:
//
//  Tracked files:
//    A (path, branch) pair registered in the master logbook. A path is always
//    relative to the project root.
//
//  Snapshots:
//    A point in time, byte-identical copy of a tracked file, identified by its epoch.
//
//  Diff results:
//    The tree-shaped outcome of comparing two snapshots with some technique.
//
//  Commit records:
//    A message that ties a diff result to the two snapshots it compares and the
//    enclosing VCS commit.
//
//  Remote pointers:
//    Where a snapshot was pushed to, or pulled from.
//
//  Events:
//    The master logbook keeps an append-only history of add, commit, push, pull
//    and remove events.
package model
