package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies panel spans in trace backends.
const TracerName = "github.com/willibrandon/nupanel"

// Attribute keys shared across panel spans.
const (
	AttrPackageID      = attribute.Key("nuget.package.id")
	AttrPackageVersion = attribute.Key("nuget.package.version")
	AttrSourceURL      = attribute.Key("nuget.source.url")
	AttrQuery          = attribute.Key("nuget.search.query")
	AttrOperation      = attribute.Key("nuget.operation")
	AttrCacheHit       = attribute.Key("nuget.cache.hit")
)

// StartSearchSpan opens the span covering one search fan-out across
// the configured sources.
func StartSearchSpan(ctx context.Context, query string, sourceCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "package.search",
		trace.WithAttributes(
			AttrQuery.String(query),
			attribute.Int("nuget.source.count", sourceCount),
			AttrOperation.String("search"),
		),
	)
}

// StartVersionListSpan opens the span for one package's version list.
func StartVersionListSpan(ctx context.Context, packageID string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "package.versions",
		trace.WithAttributes(
			AttrPackageID.String(packageID),
			AttrOperation.String("versions"),
		),
	)
}

// StartMetadataSpan opens the span for one package version's metadata.
func StartMetadataSpan(ctx context.Context, packageID, version string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "package.metadata",
		trace.WithAttributes(
			AttrPackageID.String(packageID),
			AttrPackageVersion.String(version),
			AttrOperation.String("metadata"),
		),
	)
}

// StartMutationSpan opens the span for an install, update, or remove
// applied to the project.
func StartMutationSpan(ctx context.Context, operation, projectPath, packageID string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "package."+operation,
		trace.WithAttributes(
			AttrPackageID.String(packageID),
			attribute.String("project.path", projectPath),
			AttrOperation.String(operation),
		),
	)
}

// StartServiceIndexFetchSpan opens the span for a service index fetch.
func StartServiceIndexFetchSpan(ctx context.Context, sourceURL string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "service_index.fetch",
		trace.WithAttributes(
			AttrSourceURL.String(sourceURL),
			AttrOperation.String("fetch_service_index"),
		),
	)
}

// RecordCacheHit tags the active span with the cache outcome.
func RecordCacheHit(ctx context.Context, hit bool) {
	SetAttributes(ctx, AttrCacheHit.Bool(hit))
}

// RecordRetry adds a retry event to the active span.
func RecordRetry(ctx context.Context, attempt int, err error) {
	SpanFromContext(ctx).AddEvent("retry",
		trace.WithAttributes(
			attribute.Int("retry.attempt", attempt),
			attribute.String("retry.error", err.Error()),
		),
	)
}

// EndSpanWithError closes a span, recording err if there is one.
func EndSpanWithError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		span.End()
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
}
