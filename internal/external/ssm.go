package external

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"holidayguard/internal/types"
)

// SSMAPI is the subset of *ssm.Client used by ParameterStore.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParameterStore stores blackout overrides as String parameters and
// notification secrets as SecureString parameters.
type ParameterStore struct {
	client SSMAPI
}

// NewParameterStore creates a ParameterStore.
func NewParameterStore(client SSMAPI) *ParameterStore {
	return &ParameterStore{client: client}
}

// GetParameter returns the raw value, or types.ErrParameterNotFound.
func (p *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(name)})
	if err != nil {
		var nf *ssmtypes.ParameterNotFound
		if errors.As(err, &nf) {
			return "", types.ErrParameterNotFound.WithDetails(map[string]any{"parameter": name})
		}
		return "", types.NewAppErrorWithDetails(types.ErrCodeUpstreamParameterStore,
			"get parameter failed", err, map[string]any{"parameter": name})
	}
	if out.Parameter == nil {
		return "", types.ErrParameterNotFound.WithDetails(map[string]any{"parameter": name})
	}
	return aws.ToString(out.Parameter.Value), nil
}

// PutParameter writes a String parameter. With overwrite unset, an existing
// parameter yields types.ErrParameterExists.
func (p *ParameterStore) PutParameter(ctx context.Context, name, value, description string, overwrite bool) error {
	return p.put(ctx, name, value, description, ssmtypes.ParameterTypeString, overwrite)
}

// PutSecret writes a SecureString parameter, such as the webhook URL that
// WEBHOOK_URL_SSM_PARAM points to.
func (p *ParameterStore) PutSecret(ctx context.Context, name, value, description string, overwrite bool) error {
	return p.put(ctx, name, value, description, ssmtypes.ParameterTypeSecureString, overwrite)
}

func (p *ParameterStore) put(ctx context.Context, name, value, description string, typ ssmtypes.ParameterType, overwrite bool) error {
	_, err := p.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(name),
		Value:       aws.String(value),
		Type:        typ,
		Description: aws.String(description),
		Overwrite:   aws.Bool(overwrite),
	})
	if err != nil {
		var exists *ssmtypes.ParameterAlreadyExists
		if errors.As(err, &exists) {
			return types.ErrParameterExists.WithDetails(map[string]any{"parameter": name})
		}
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamParameterStore,
			"put parameter failed", err, map[string]any{"parameter": name})
	}
	return nil
}
