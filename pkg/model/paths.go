package model

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// StateDir holds all local state of a project: history, logbooks and config
	StateDir = ".yap"

	// ConfigFile is the project configuration, relative to the project root
	ConfigFile = StateDir + "/config.toml"

	// DefaultHistoryDir holds snapshots, relative to the project root
	DefaultHistoryDir = StateDir + "/history"

	// DefaultLogbooksDir holds per-file logbooks, relative to the project root
	DefaultLogbooksDir = StateDir + "/logbooks"

	// DefaultMasterLogbook is the master logbook, relative to the project root
	DefaultMasterLogbook = StateDir + "/master.db"

	// DefaultBranch is used whenever the current VCS branch cannot be determined
	DefaultBranch = "master"

	logbookExt = ".db"
)

// NewEpoch yields an epoch for the current time.
//
// Epochs are expressed in nanoseconds since the unix epoch.
func NewEpoch() int64 {
	return time.Now().UnixNano()
}

// IsStateFile tells if a path (relative to the project root) belongs to the local state
// and should never be tracked.
func IsStateFile(pth string) bool {
	clean := filepath.ToSlash(filepath.Clean(pth))
	return clean == StateDir || strings.HasPrefix(clean, StateDir+"/")
}

// GetHistoryDir yields the folder holding all snapshots of a tracked file on some branch
func GetHistoryDir(historyRoot, pth, branch string) string {
	return filepath.Join(historyRoot, filepath.FromSlash(pth), branch)
}

// GetHistoryPath yields the location of a snapshot
func GetHistoryPath(historyRoot, pth, branch string, epoch int64) string {
	return filepath.Join(GetHistoryDir(historyRoot, pth, branch), strconv.FormatInt(epoch, 10))
}

// GetLogbookPath yields the location of the per-file logbook of a tracked file
func GetLogbookPath(logbooksRoot, pth string) string {
	return filepath.Join(logbooksRoot, filepath.FromSlash(pth)+logbookExt)
}

// GetRemoteKey yields the remote key of the current snapshot of a file: the tracked path, verbatim
func GetRemoteKey(pth string) string {
	return filepath.ToSlash(pth)
}

// GetRemoteHistoryKey yields the remote key of a historical snapshot
func GetRemoteHistoryKey(pth, branch string, epoch int64) string {
	return path.Join(filepath.ToSlash(pth)+"@"+branch, strconv.FormatInt(epoch, 10))
}
