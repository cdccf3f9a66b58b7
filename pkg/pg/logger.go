package pg

import "context"

// logger is the subset of slog's API Migrate needs so goose output lands in
// the application log instead of stdout.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
