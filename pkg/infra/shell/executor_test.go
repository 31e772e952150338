package shell_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/spock/pkg/domain/model"
	"github.com/m-mizutani/spock/pkg/infra/shell"
)

func TestJoinCommands(t *testing.T) {
	gt.Value(t, model.JoinCommands([]string{"echo /site/content/post.md", "echo alice"})).
		Equal("echo /site/content/post.md; echo alice")
	gt.Value(t, model.JoinCommands([]string{"true"})).Equal("true")
	gt.Value(t, model.JoinCommands(nil)).Equal("")
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()
	exe := shell.New()
	gt.Value(t, exe.Shell()).Equal(shell.DefaultShell)

	t.Run("captures stdout and stderr", func(t *testing.T) {
		result, err := exe.Execute(ctx, []string{"echo hello", "echo oops >&2"}, t.TempDir())
		gt.NoError(t, err)
		gt.Value(t, result.Command).Equal("echo hello; echo oops >&2")
		gt.Value(t, result.ExitCode).Equal(0)
		gt.True(t, result.Succeeded())
		gt.Value(t, result.Stdout).Equal("hello\n")
		gt.Value(t, result.Stderr).Equal("oops\n")
	})

	t.Run("runs in working directory", func(t *testing.T) {
		dir := t.TempDir()
		result, err := exe.Execute(ctx, []string{"touch created.txt", "pwd"}, dir)
		gt.NoError(t, err)
		gt.True(t, result.Succeeded())

		_, err = os.Stat(filepath.Join(dir, "created.txt"))
		gt.NoError(t, err)
	})

	t.Run("later commands run after failure", func(t *testing.T) {
		dir := t.TempDir()
		result, err := exe.Execute(ctx, []string{"false", "touch after.txt"}, dir)
		gt.NoError(t, err)
		gt.True(t, result.Succeeded())

		_, err = os.Stat(filepath.Join(dir, "after.txt"))
		gt.NoError(t, err)
	})

	t.Run("non-zero exit is not an error", func(t *testing.T) {
		result, err := exe.Execute(ctx, []string{"echo permission denied >&2; exit 3"}, t.TempDir())
		gt.NoError(t, err)
		gt.Value(t, result.ExitCode).Equal(3)
		gt.False(t, result.Succeeded())
		gt.True(t, strings.Contains(result.Stderr, "permission denied"))
	})

	t.Run("empty command list does not spawn", func(t *testing.T) {
		result, err := exe.Execute(ctx, nil, "/nonexistent-dir")
		gt.NoError(t, err)
		gt.Value(t, result.ExitCode).Equal(0)
		gt.Value(t, result.Command).Equal("")
	})

	t.Run("missing shell is a launch failure", func(t *testing.T) {
		broken := shell.New(shell.WithShell("/nonexistent/shell"))
		_, err := broken.Execute(ctx, []string{"echo hi"}, t.TempDir())
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrLaunchFailed))
	})

	t.Run("missing working directory is a launch failure", func(t *testing.T) {
		_, err := exe.Execute(ctx, []string{"echo hi"}, filepath.Join(t.TempDir(), "missing"))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrLaunchFailed))
	})

	t.Run("empty shell option keeps default", func(t *testing.T) {
		gt.Value(t, shell.New(shell.WithShell("")).Shell()).Equal(shell.DefaultShell)
	})
}
