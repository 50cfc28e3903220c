package namespace

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func tracer() trace.Tracer {
	return otel.Tracer("mercator-hq/backupkeeper/pkg/namespace")
}

// Display name layouts for the year, month and day levels,
// e.g. "2024", "03 March", "17".
const (
	yearLayout  = "2006"
	monthLayout = "01 January"
	dayLayout   = "02"
)

// Resolver maps a date onto its year/month/day node, creating missing
// levels on the way down.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:  store,
		logger: slog.Default().With("component", "namespace.resolver"),
	}
}

// Path returns the display names of the year, month and day nodes for date.
// Dates are bucketed in UTC, matching the retention grid.
func (r *Resolver) Path(date time.Time) []string {
	date = date.UTC()
	return []string{
		date.Format(yearLayout),
		date.Format(monthLayout),
		date.Format(dayLayout),
	}
}

// Resolve returns the ID of the day node for date. Existing nodes are
// matched by display name, case-insensitively, so repeated calls for the
// same date return the same ID.
func (r *Resolver) Resolve(ctx context.Context, date time.Time) (string, error) {
	path := r.Path(date)

	ctx, span := tracer().Start(ctx, "namespace.resolve",
		trace.WithAttributes(attribute.String("namespace.path", strings.Join(path, "/"))))
	defer span.End()

	current := RootID
	for _, name := range path {
		next, err := r.child(ctx, current, name)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		current = next
	}

	span.SetAttributes(attribute.String("namespace.node_id", current))
	return current, nil
}

func (r *Resolver) child(ctx context.Context, parentID, name string) (string, error) {
	children, err := r.store.ListChildren(ctx, parentID)
	if err != nil {
		return "", NewStoreOperationError(OpListChildren, parentID, err)
	}

	for _, child := range children {
		if strings.EqualFold(child.DisplayName, name) {
			return child.ID, nil
		}
	}

	id, err := r.store.CreateChild(ctx, parentID, name)
	if err != nil {
		return "", NewStoreOperationError(OpCreateChild, parentID, err)
	}

	r.logger.Debug("created namespace node",
		"parent_id", parentID,
		"display_name", name,
		"node_id", id,
	)
	return id, nil
}
