package model

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventKind is the kind of event appended to the master logbook.
//
// It doubles as the operation requested on a batch of files.
type EventKind string

// Known events
const (
	EventAdd    EventKind = "Add"
	EventCommit EventKind = "Commit"
	EventPush   EventKind = "Push"
	EventPull   EventKind = "Pull"
	EventRemove EventKind = "Remove"
)

func (k EventKind) String() string {
	return string(k)
}

// Technique selects how two snapshots are compared
type Technique string

// Comparison techniques
const (
	TechniqueHash       Technique = "hash"
	TechniqueSimilarity Technique = "similarity"
	TechniqueCustom     Technique = "custom"
	TechniqueSmart      Technique = "smart"
)

// ParseTechnique resolves a technique from its (case-insensitive) name
func ParseTechnique(s string) (Technique, error) {
	t := Technique(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TechniqueHash, TechniqueSimilarity, TechniqueCustom, TechniqueSmart:
		return t, nil
	case "":
		return TechniqueSmart, nil
	default:
		return "", fmt.Errorf("unknown comparison technique: %q", s)
	}
}

// PushStrategy selects which snapshots of a file are uploaded on push
type PushStrategy string

// Push strategies
const (
	PushAll   PushStrategy = "all"
	PushLast  PushStrategy = "last"
	PushSmart PushStrategy = "smart"
)

// ParsePushStrategy resolves a push strategy from its (case-insensitive) name.
// An empty name defaults to the smart strategy.
func ParsePushStrategy(s string) (PushStrategy, error) {
	p := PushStrategy(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PushAll, PushLast, PushSmart:
		return p, nil
	case "":
		return PushSmart, nil
	default:
		return "", fmt.Errorf("unknown push strategy: %q", s)
	}
}

// StorageKind is the tag of a remote storage provider
type StorageKind string

// Supported remote storage providers
const (
	StorageLocal  StorageKind = "local"
	StorageS3     StorageKind = "s3"
	StorageGCS    StorageKind = "gcs"
	StorageMinio  StorageKind = "minio"
	StorageBadger StorageKind = "badger"
)

// Direction of a remote transfer
type Direction string

// Transfer directions
const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// TrackedFile is a (path, branch) pair under version control
type TrackedFile struct {
	Path   string `json:"path" yaml:"path"`
	Branch string `json:"branch" yaml:"branch"`
	Author Author `json:"author" yaml:"author"`
	_      struct{}
}

// Snapshot is a byte-identical copy of a tracked file at some epoch
type Snapshot struct {
	Path   string `json:"path" yaml:"path"`
	Branch string `json:"branch" yaml:"branch"`
	Epoch  int64  `json:"epoch" yaml:"epoch"`
	Author Author `json:"author" yaml:"author"`
	Size   int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

func (s Snapshot) String() string {
	return fmt.Sprintf("%s@%s/%d", s.Path, s.Branch, s.Epoch)
}

// Tree is a nested key-value document, as produced by comparisons.
// Leaves are JSON-like scalars (nil, bool, float64, int, string) or lists.
type Tree map[string]interface{}

// JSON serializes a tree, with sorted keys
func (t Tree) JSON() (string, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseTree deserializes a tree from its JSON representation
func ParseTree(s string) (Tree, error) {
	t := make(Tree)
	if s == "" {
		return t, nil
	}
	if err := json.UnmarshalFromString(s, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// DiffResult is the outcome of comparing two snapshots of the same file
type DiffResult struct {
	ID        int64     `json:"id,omitempty" yaml:"id,omitempty"`
	Technique Technique `json:"technique" yaml:"technique"`
	Script    string    `json:"script,omitempty" yaml:"script,omitempty"`
	Result    Tree      `json:"result" yaml:"result"`
	Changed   bool      `json:"changed" yaml:"changed"`
	From      Snapshot  `json:"from" yaml:"from"`
	To        Snapshot  `json:"to" yaml:"to"`
	Author    Author    `json:"author" yaml:"author"`
}

// CommitRecord ties a diff result to the snapshots it compares
type CommitRecord struct {
	ID        int64    `json:"id,omitempty" yaml:"id,omitempty"`
	VCSCommit string   `json:"vcs_commit" yaml:"vcs_commit"`
	Message   string   `json:"message" yaml:"message"`
	From      Snapshot `json:"from" yaml:"from"`
	To        Snapshot `json:"to" yaml:"to"`
	DiffID    int64    `json:"diff_id" yaml:"diff_id"`
	Author    Author   `json:"author" yaml:"author"`
}

// RemotePointer records where a snapshot was pushed to or pulled from
type RemotePointer struct {
	ID        int64        `json:"id,omitempty" yaml:"id,omitempty"`
	Snapshot  Snapshot     `json:"snapshot" yaml:"snapshot"`
	Storage   StorageKind  `json:"storage" yaml:"storage"`
	Strategy  PushStrategy `json:"strategy" yaml:"strategy"`
	Key       string       `json:"key" yaml:"key"`
	Direction Direction    `json:"direction" yaml:"direction"`
	Timestamp int64        `json:"timestamp" yaml:"timestamp"`
}

// Event is one entry of the master logbook history
type Event struct {
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Path      string    `json:"path" yaml:"path"`
	Branch    string    `json:"branch" yaml:"branch"`
	Kind      EventKind `json:"event" yaml:"event"`
}
