package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"spendings/internal/core"
	"spendings/internal/spendings"
)

// ErrMissingID is returned when a command that targets one spending has no
// -id flag.
var ErrMissingID = errors.New("a positive -id is required")

// stateError turns a failed action into an error for the exit status.
func stateError(s spendings.State) error {
	if s.HasError() {
		return errors.New(s.Error)
	}
	return nil
}

// filterFlags collects the list filters as query values so they go through
// the same parsing as the API.
type filterFlags struct {
	values url.Values
}

func (f *filterFlags) register(fset *flag.FlagSet) {
	f.values = url.Values{}
	for _, p := range []struct{ name, usage string }{
		{core.ParamUserID, "Only spendings of this user id"},
		{core.ParamStartDate, "Only spendings created on or after this day (YYYY-MM-DD)"},
		{core.ParamEndDate, "Only spendings created on or before this day (YYYY-MM-DD)"},
		{core.ParamType, "Only spendings of this type"},
		{core.ParamModel, "Only spendings of this model"},
	} {
		fset.Func(p.name, p.usage, func(s string) error {
			f.values.Set(p.name, s)
			return nil
		})
	}
}

func (f *filterFlags) filters() (core.Filters, error) {
	return core.ParseFilters(f.values)
}

type listCommand struct {
	page    int
	filters filterFlags
}

func NewListCommand() Command {
	return &listCommand{}
}

func (c *listCommand) Description() string {
	return "List one page of spendings, optionally filtered"
}

func (c *listCommand) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&c.page, core.ParamPage, 1, "Page to fetch")
	c.filters.register(fset)
}

func (c *listCommand) Run(ctx context.Context, env Env) error {
	filters, err := c.filters.filters()
	if err != nil {
		return fmt.Errorf("invalid filters: %w", err)
	}

	env.Actions.SetFilters(filters)
	env.Actions.SetCurrentPage(c.page)
	env.Actions.Reload(ctx)

	s := env.Actions.Store().Get()
	if err := stateError(s); err != nil {
		return err
	}
	return RenderState(env.Out, s)
}

type getCommand struct {
	id   int64
	page int
}

func NewGetCommand() Command {
	return &getCommand{}
}

func (c *getCommand) Description() string {
	return "Refresh one spending of a page and print it"
}

func (c *getCommand) SetFlags(fset *flag.FlagSet) {
	fset.Int64Var(&c.id, "id", 0, "Spending id")
	fset.IntVar(&c.page, core.ParamPage, 1, "Page the spending is on")
}

func (c *getCommand) Run(ctx context.Context, env Env) error {
	if c.id <= 0 {
		return ErrMissingID
	}

	env.Actions.SetCurrentPage(c.page)
	env.Actions.Reload(ctx)
	if err := stateError(env.Actions.Store().Get()); err != nil {
		return err
	}

	env.Actions.FetchSpendingByID(ctx, c.id)
	s := env.Actions.Store().Get()
	if err := stateError(s); err != nil {
		return err
	}

	sp, ok := s.Find(c.id)
	if !ok {
		return fmt.Errorf("spending %d is not on page %d", c.id, c.page)
	}
	return RenderSpending(env.Out, sp)
}

type addCommand struct {
	userID int64
	count  string
	kind   string
	model  string
}

func NewAddCommand() Command {
	return &addCommand{}
}

func (c *addCommand) Description() string {
	return "Create a spending"
}

func (c *addCommand) SetFlags(fset *flag.FlagSet) {
	fset.Int64Var(&c.userID, "userid", 0, "User id")
	fset.StringVar(&c.count, "count", "", "Amount, e.g. 12.50")
	fset.StringVar(&c.kind, "type", "", "Spending type")
	fset.StringVar(&c.model, "model", "", "Spending model")
}

func (c *addCommand) Run(ctx context.Context, env Env) error {
	count, err := core.ParseAmount(c.count)
	if err != nil {
		return fmt.Errorf("invalid -count %q: %w", c.count, err)
	}
	n := core.NewSpending{
		UserID: c.userID,
		Count:  count,
		Type:   strings.TrimSpace(c.kind),
		Model:  strings.TrimSpace(c.model),
	}
	if err := n.Validate(); err != nil {
		return err
	}

	env.Actions.AddSpending(ctx, n)
	s := env.Actions.Store().Get()
	if err := stateError(s); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, ColorOutput("Spending added", "green"))
	return RenderSpending(env.Out, s.Spendings[len(s.Spendings)-1])
}

type updateCommand struct {
	id     int64
	page   int
	update core.SpendingUpdate
}

func NewUpdateCommand() Command {
	return &updateCommand{}
}

func (c *updateCommand) Description() string {
	return "Update the given fields of a spending"
}

func (c *updateCommand) SetFlags(fset *flag.FlagSet) {
	c.update = core.SpendingUpdate{}
	fset.Int64Var(&c.id, "id", 0, "Spending id")
	fset.IntVar(&c.page, core.ParamPage, 1, "Page the spending is on")
	fset.Func("userid", "New user id", func(s string) error {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return core.ErrInvalidUser
		}
		c.update.UserID = &id
		return nil
	})
	fset.Func("count", "New amount", func(s string) error {
		a, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		c.update.Count = &a
		return nil
	})
	fset.Func("type", "New type", func(s string) error {
		c.update.Type = core.Ptr(strings.TrimSpace(s))
		return nil
	})
	fset.Func("model", "New model", func(s string) error {
		c.update.Model = core.Ptr(strings.TrimSpace(s))
		return nil
	})
}

func (c *updateCommand) Run(ctx context.Context, env Env) error {
	if c.id <= 0 {
		return ErrMissingID
	}
	if c.update.IsEmpty() {
		return errors.New("nothing to update: set at least one of -userid, -count, -type, -model")
	}
	if err := c.update.Validate(); err != nil {
		return err
	}

	env.Actions.SetCurrentPage(c.page)
	env.Actions.Reload(ctx)
	if err := stateError(env.Actions.Store().Get()); err != nil {
		return err
	}

	env.Actions.UpdateSpending(ctx, c.id, c.update)
	s := env.Actions.Store().Get()
	if err := stateError(s); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, ColorOutput(fmt.Sprintf("Spending %d updated", c.id), "green"))
	if sp, ok := s.Find(c.id); ok {
		return RenderSpending(env.Out, sp)
	}
	return nil
}

type deleteCommand struct {
	id int64
}

func NewDeleteCommand() Command {
	return &deleteCommand{}
}

func (c *deleteCommand) Description() string {
	return "Delete a spending"
}

func (c *deleteCommand) SetFlags(fset *flag.FlagSet) {
	fset.Int64Var(&c.id, "id", 0, "Spending id")
}

func (c *deleteCommand) Run(ctx context.Context, env Env) error {
	if c.id <= 0 {
		return ErrMissingID
	}

	env.Actions.DeleteSpending(ctx, c.id)
	s := env.Actions.Store().Get()
	if err := stateError(s); err != nil {
		return err
	}

	fmt.Fprintln(env.Out, ColorOutput(fmt.Sprintf("Spending %d deleted", c.id), "green"))
	return nil
}
