package cmd

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type ExitMocks struct {
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	fmt.Printf(format+"\n", v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	fmt.Println(v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.exitStatuses)
}

func (m *ExitMocks) lastStatus() int {
	if len(m.exitStatuses) == 0 {
		return 0
	}
	return m.exitStatuses[len(m.exitStatuses)-1]
}

var (
	exitMocks *ExitMocks
	output    *bytes.Buffer
)

// setupTests patches exits and output, and runs all commands in a fresh project directory
func setupTests(t *testing.T) string {
	exitMocks = &ExitMocks{}
	logFatalf = exitMocks.Fatalf
	logFatalln = exitMocks.Fatalln
	osExit = exitMocks.Exit

	output = new(bytes.Buffer)
	infoLogger = log.New(output, "", 0)

	dir := t.TempDir()
	yapFlags = flagsT{}
	yapFlags.root.project = dir
	t.Setenv(envConfigFile, "")
	return dir
}

func runCmd(t *testing.T, cmd []string, intentMsg string, expectError bool) string {
	fatalCallsBefore := exitMocks.fatalCalls()
	project := yapFlags.root.project

	yapFlags = flagsT{}
	yapFlags.root.project = project
	yapFlags.root.logLevel = "none"
	output.Reset()

	rootCmd.SetArgs(cmd)
	require.NoError(t, rootCmd.Execute(), "error executing '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	if expectError {
		require.Equal(t, fatalCallsBefore+1, exitMocks.fatalCalls(),
			"ran '"+strings.Join(cmd, " ")+"' expecting error and didn't see one in mocks : "+intentMsg)
	} else {
		require.Equal(t, fatalCallsBefore, exitMocks.fatalCalls(),
			"unexpected error in mocks on '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	}
	return output.String()
}
