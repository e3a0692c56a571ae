package cli

import (
	"context"
	"flag"
	"io"

	"spendings/internal/spendings"
)

// Env is what a command runs against.
type Env struct {
	Actions *spendings.Actions
	Out     io.Writer
}

type Command interface {
	SetFlags(fset *flag.FlagSet)
	Description() string
	Run(ctx context.Context, env Env) error
}

// Subcommands returns a fresh set of the spendings subcommands by name.
func Subcommands() map[string]Command {
	return map[string]Command{
		"list":   NewListCommand(),
		"get":    NewGetCommand(),
		"add":    NewAddCommand(),
		"update": NewUpdateCommand(),
		"delete": NewDeleteCommand(),
	}
}
