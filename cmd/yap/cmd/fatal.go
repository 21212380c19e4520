package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/oneconcern/yap/pkg/errors"
)

// exitFilesFailed is the exit status of a batch that ran to completion with some failed files
const exitFilesFailed = 2

var errFilesFailed = errors.New("some files failed")

var (
	// patched in tests
	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger prints command results on stdout
	infoLogger = log.New(os.Stdout, "", 0)
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
		return
	}
	logFatalf("%s: %v", msg, err)
}

// exitBatch terminates a batch command: failed files exit with exitFilesFailed,
// any other error is fatal
func exitBatch(op string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, errFilesFailed):
		_, _ = fmt.Fprintln(os.Stderr, err)
		osExit(exitFilesFailed)
	default:
		wrapFatalln(op+" failed", err)
	}
}
