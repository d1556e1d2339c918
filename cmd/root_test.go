package cmd

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestRootCommandHasMigrateSubcommand(t *testing.T) {
	root := newRootCmd()

	sub, _, err := root.Find([]string{"migrate"})
	assert.NoError(t, err)
	assert.Equal(t, "migrate", sub.Name())
	assert.NotNil(t, sub.Flags().Lookup("dir"))
}

func TestExecutePropagatesContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	var seen interface{}
	noop := &cobra.Command{
		Use: "noop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seen = cmd.Context().Value(ctxKey{})
			return nil
		},
	}

	root := newRootCmd()
	root.AddCommand(noop)
	root.SetArgs([]string{"noop"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	assert.NoError(t, root.ExecuteContext(ctx))
	assert.Equal(t, "marker", seen)
}
