package graph

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/appheap/tase/pkg/errors"
	"github.com/appheap/tase/pkg/logger"
)

// Executor runs parameterized queries against the store. Collection and
// relationship names cannot be passed as driver parameters, so they flow
// through Substitute as @name placeholders; this is the only place textual
// interpolation happens and every identifier is validated before it is
// spliced in. All scalar and list values go through driver parameters.
//
// Execute returns nil uniformly on failure and on an empty result set;
// callers cannot distinguish the two through this interface.
type Executor struct {
	driver neo4j.DriverWithContext
	log    *zap.Logger
}

// NewExecutor creates an executor over an open driver.
func NewExecutor(driver neo4j.DriverWithContext) *Executor {
	return &Executor{
		driver: driver,
		log:    logger.Named("graph"),
	}
}

// Driver exposes the underlying driver for schema management.
func (e *Executor) Driver() neo4j.DriverWithContext { return e.driver }

// Close closes the underlying driver.
func (e *Executor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var placeholderPattern = regexp.MustCompile(`@[A-Za-z_][A-Za-z0-9_]*`)

// Substitute splices validated identifiers into @name placeholders. It
// fails when an identifier is not a plain word or when a placeholder is
// left unresolved, so no unchecked text ever reaches the store.
func Substitute(query string, idents map[string]string) (string, error) {
	names := make([]string, 0, len(idents))
	for name := range idents {
		names = append(names, name)
	}
	// Longer names first so @has_audio is not clobbered by @has.
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		ident := idents[name]
		if !identPattern.MatchString(ident) {
			return "", errors.New(errors.ErrorTypeUsage, "invalid identifier "+ident, nil)
		}
		query = strings.ReplaceAll(query, "@"+name, ident)
	}

	if left := placeholderPattern.FindString(query); left != "" {
		return "", errors.New(errors.ErrorTypeUsage, "unresolved placeholder "+left, nil)
	}
	return query, nil
}

// Read executes a read query and returns raw record maps.
func (e *Executor) Read(ctx context.Context, query string, idents map[string]string, params map[string]any) []map[string]any {
	return e.Execute(ctx, neo4j.AccessModeRead, query, idents, params)
}

// Write executes a write query and returns raw record maps.
func (e *Executor) Write(ctx context.Context, query string, idents map[string]string, params map[string]any) []map[string]any {
	return e.Execute(ctx, neo4j.AccessModeWrite, query, idents, params)
}

// Execute runs the query and collects all records into raw maps. Failures
// are logged and collapsed to nil, the same as an empty result.
func (e *Executor) Execute(ctx context.Context, mode neo4j.AccessMode, query string, idents map[string]string, params map[string]any) []map[string]any {
	resolved, err := Substitute(query, idents)
	if err != nil {
		e.log.Error("query substitution failed", zap.Error(err))
		return nil
	}

	session := e.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
	defer session.Close(ctx)

	result, err := session.Run(ctx, resolved, params)
	if err != nil {
		e.log.Error("query failed", zap.Error(err))
		return nil
	}

	records, err := result.Collect(ctx)
	if err != nil {
		e.log.Error("result collection failed", zap.Error(err))
		return nil
	}
	if len(records) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			if v, ok := record.Get(key); ok {
				row[key] = v
			}
		}
		rows = append(rows, row)
	}
	return rows
}
