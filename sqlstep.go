package migrate

import "context"

// SQLStep runs raw SQL. Statements may use the {{%table}} and [[column]]
// templates. An empty Down is a no-op.
type SQLStep struct {
	UpSQL   string
	DownSQL string
}

func (s SQLStep) Up(ctx context.Context, r Runner) error {
	if s.UpSQL == "" {
		return nil
	}
	return r.Execute(ctx, s.UpSQL)
}

func (s SQLStep) Down(ctx context.Context, r Runner) error {
	if s.DownSQL == "" {
		return nil
	}
	return r.Execute(ctx, s.DownSQL)
}
