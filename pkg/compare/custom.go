package compare

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/oneconcern/yap/pkg/errors"
	"github.com/oneconcern/yap/pkg/model"
	"go.uber.org/zap"
)

const outputKey = "output"

// scriptComparator runs an external program with the paths to the current and previous
// versions of the file.
//
// A JSON object written to stdout becomes the diff result. Any other output is kept
// as {"output": "..."}.
type scriptComparator struct {
	script string
	l      *zap.Logger
}

func (s scriptComparator) Compare(ctx context.Context, current, previous Blob) (model.Tree, error) {
	if s.script == "" {
		return nil, ErrMissingComparisonScript
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.script, current.RealPath(), previous.RealPath())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.l.Debug("running comparison script",
		zap.String("script", s.script),
		zap.String("current", current.Path),
		zap.String("previous", previous.Path),
	)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		scriptErr := &ScriptError{
			Script:     s.script,
			ExitStatus: -1,
			Stderr:     strings.TrimSpace(stderr.String()),
			Err:        err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			scriptErr.ExitStatus = exitErr.ExitCode()
		}
		return nil, ErrComparisonScriptFailed.Wrap(scriptErr)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if tree, err := model.ParseTree(string(out)); err == nil && tree != nil {
		return tree, nil
	}
	return model.Tree{outputKey: string(out)}, nil
}
