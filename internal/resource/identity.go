// Package resource turns the free-form identifiers found in AWS Health events
// into ECS cluster/service identities.
package resource

import (
	"context"
	"log/slog"
	"strings"

	"holidayguard/internal/types"
)

// Kind tags the shape of a parsed identifier.
type Kind int

const (
	KindUnknown Kind = iota
	KindService
	KindTask
	KindPair
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindTask:
		return "task"
	case KindPair:
		return "pair"
	default:
		return "unknown"
	}
}

// Reference is a parsed identifier. Service is empty for KindTask; TaskID is
// set only for KindTask.
type Reference struct {
	Kind    Kind
	Raw     string
	Cluster string
	Service string
	TaskID  string
}

// Identity returns the resolved identity, or the sentinel when the reference
// does not carry one directly.
func (r Reference) Identity() types.ResourceIdentity {
	if r.Cluster == "" || r.Service == "" {
		return types.SentinelIdentity()
	}
	return types.ResourceIdentity{Cluster: r.Cluster, Service: r.Service}
}

// parsers run in order; the first that claims the input wins.
var parsers = []func(string) (Reference, bool){
	parseARN,
	parsePair,
}

// Parse classifies raw. It never fails; unrecognized input is KindUnknown.
func Parse(raw string) Reference {
	for _, p := range parsers {
		if ref, ok := p(raw); ok {
			ref.Raw = raw
			return ref
		}
	}
	return Reference{Kind: KindUnknown, Raw: raw}
}

// parseARN handles arn:<partition>:ecs:<region>:<account>:<type>/<cluster>/<name>.
// Any partition is accepted (aws, aws-cn, aws-us-gov).
func parseARN(raw string) (Reference, bool) {
	if !strings.HasPrefix(raw, "arn:") {
		return Reference{}, false
	}
	fields := strings.SplitN(raw, ":", 6)
	if len(fields) != 6 || fields[2] != "ecs" {
		return Reference{Kind: KindUnknown}, true
	}

	segments := strings.Split(fields[5], "/")
	if len(segments) < 3 {
		return Reference{Kind: KindUnknown}, true
	}
	cluster := segments[len(segments)-2]
	name := segments[len(segments)-1]
	if cluster == "" || name == "" {
		return Reference{Kind: KindUnknown}, true
	}

	switch segments[0] {
	case "service":
		return Reference{Kind: KindService, Cluster: cluster, Service: name}, true
	case "task":
		return Reference{Kind: KindTask, Cluster: cluster, TaskID: name}, true
	default:
		return Reference{Kind: KindUnknown}, true
	}
}

// parsePair handles "cluster|service" with exactly two non-empty fields.
func parsePair(raw string) (Reference, bool) {
	if !strings.Contains(raw, "|") {
		return Reference{}, false
	}
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return Reference{Kind: KindUnknown}, true
	}
	cluster, service := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if cluster == "" || service == "" {
		return Reference{Kind: KindUnknown}, true
	}
	return Reference{Kind: KindPair, Cluster: cluster, Service: service}, true
}

// ServiceLookup finds the service that owns a task. Implementations are
// total and return types.UnknownService when nothing matches.
type ServiceLookup interface {
	ServiceForTask(ctx context.Context, cluster, taskID string) string
}

// Resolver maps raw identifiers to identities.
type Resolver struct {
	lookup ServiceLookup
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil lookup leaves task references
// unresolved.
func NewResolver(lookup ServiceLookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// ResolveIdentity is total: every failure path yields the sentinel.
func (r *Resolver) ResolveIdentity(ctx context.Context, raw string) types.ResourceIdentity {
	ref := Parse(raw)

	switch ref.Kind {
	case KindService, KindPair:
		return ref.Identity()
	case KindTask:
		if r.lookup == nil {
			return types.ResourceIdentity{Cluster: ref.Cluster, Service: types.UnknownService}
		}
		service := r.lookup.ServiceForTask(ctx, ref.Cluster, ref.TaskID)
		if service == "" {
			service = types.UnknownService
		}
		id := types.ResourceIdentity{Cluster: ref.Cluster, Service: service}
		r.logger.DebugContext(ctx, "resolved task to service",
			"task_id", ref.TaskID, "cluster", ref.Cluster, "service", service)
		return id
	default:
		r.logger.WarnContext(ctx, "unrecognized resource identifier", "identifier", raw)
		return types.SentinelIdentity()
	}
}
