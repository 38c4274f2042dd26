package external

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"holidayguard/internal/types"
)

// ECSAPI is the subset of *ecs.Client used by the adapters.
type ECSAPI interface {
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
	DescribeTasks(ctx context.Context, params *ecs.DescribeTasksInput, optFns ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error)
	ListServices(ctx context.Context, params *ecs.ListServicesInput, optFns ...func(*ecs.Options)) (*ecs.ListServicesOutput, error)
}

// ServiceNameTag is the ECS managed tag carrying the owning service.
const ServiceNameTag = "aws:ecs:serviceName"

const taskGroupServicePrefix = "service:"

// ECSRestarter forces a new deployment of a service.
type ECSRestarter struct {
	client ECSAPI
	logger *slog.Logger
}

// NewECSRestarter creates an ECSRestarter.
func NewECSRestarter(client ECSAPI, logger *slog.Logger) *ECSRestarter {
	return &ECSRestarter{client: client, logger: logger}
}

// RestartService issues UpdateService with ForceNewDeployment and returns the
// id of the primary deployment, which may be empty.
func (r *ECSRestarter) RestartService(ctx context.Context, id types.ResourceIdentity) (string, error) {
	out, err := r.client.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:            aws.String(id.Cluster),
		Service:            aws.String(id.Service),
		ForceNewDeployment: true,
	})
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrCodeUpstreamRestart,
			fmt.Sprintf("force new deployment of %s failed", id), err,
			map[string]any{"cluster": id.Cluster, "service": id.Service})
	}

	var deploymentID string
	if out.Service != nil {
		for _, d := range out.Service.Deployments {
			if aws.ToString(d.Status) == "PRIMARY" {
				deploymentID = aws.ToString(d.Id)
				break
			}
		}
		if deploymentID == "" && len(out.Service.Deployments) > 0 {
			deploymentID = aws.ToString(out.Service.Deployments[0].Id)
		}
	}

	r.logger.InfoContext(ctx, "forced new deployment",
		"cluster", id.Cluster,
		"service", id.Service,
		"deployment_id", deploymentID,
	)
	return deploymentID, nil
}

// ECSServiceLookup finds the service that launched a task.
type ECSServiceLookup struct {
	client ECSAPI
	logger *slog.Logger
}

// NewECSServiceLookup creates an ECSServiceLookup.
func NewECSServiceLookup(client ECSAPI, logger *slog.Logger) *ECSServiceLookup {
	return &ECSServiceLookup{client: client, logger: logger}
}

// ServiceForTask is total. It checks the task group, then the managed
// service-name tag, then falls back to the first service in the cluster.
// Any API error yields types.UnknownService.
func (l *ECSServiceLookup) ServiceForTask(ctx context.Context, cluster, taskID string) string {
	out, err := l.client.DescribeTasks(ctx, &ecs.DescribeTasksInput{
		Cluster: aws.String(cluster),
		Tasks:   []string{taskID},
		Include: []ecstypes.TaskField{ecstypes.TaskFieldTags},
	})
	if err != nil {
		l.logger.WarnContext(ctx, "describe tasks failed", "cluster", cluster, "task_id", taskID, "error", err)
		return types.UnknownService
	}

	if len(out.Tasks) > 0 {
		task := out.Tasks[0]
		if group := aws.ToString(task.Group); strings.HasPrefix(group, taskGroupServicePrefix) {
			return strings.TrimPrefix(group, taskGroupServicePrefix)
		}
		for _, tag := range task.Tags {
			if aws.ToString(tag.Key) == ServiceNameTag && aws.ToString(tag.Value) != "" {
				return aws.ToString(tag.Value)
			}
		}
	}

	services, err := l.client.ListServices(ctx, &ecs.ListServicesInput{Cluster: aws.String(cluster)})
	if err != nil {
		l.logger.WarnContext(ctx, "list services failed", "cluster", cluster, "error", err)
		return types.UnknownService
	}
	if len(services.ServiceArns) == 0 {
		return types.UnknownService
	}

	first := services.ServiceArns[0]
	name := first[strings.LastIndex(first, "/")+1:]
	l.logger.WarnContext(ctx, "task has no owning service; using first service in cluster",
		"cluster", cluster, "task_id", taskID, "service", name)
	return name
}
