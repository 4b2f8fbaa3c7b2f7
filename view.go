package migrate

import "context"

// ViewQuery renders the SELECT statement of a view with every argument
// inlined.
type ViewQuery interface {
	RawSQL(driver string) (string, error)
}

// CreateView is a step that creates a view on Up and drops it on Down.
type CreateView struct {
	// Name is the view name without prefix.
	Name  string
	Query ViewQuery
}

func (v CreateView) quotedName(r Runner) string {
	return r.QuoteTableName("{{%" + v.Name + "}}")
}

// Up runs CREATE VIEW with the query's raw SQL as the body.
func (v CreateView) Up(ctx context.Context, r Runner) error {
	if v.Name == "" {
		return ErrMissingViewName
	}
	if v.Query == nil {
		return ErrMissingViewQuery
	}
	raw, err := v.Query.RawSQL(r.DriverName())
	if err != nil {
		return err
	}
	return r.Execute(ctx, "CREATE VIEW "+v.quotedName(r)+" AS "+raw)
}

// Down runs DROP VIEW.
func (v CreateView) Down(ctx context.Context, r Runner) error {
	if v.Name == "" {
		return ErrMissingViewName
	}
	return r.Execute(ctx, "DROP VIEW "+v.quotedName(r))
}
