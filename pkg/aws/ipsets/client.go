package ipsets

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/wafv2"
	"github.com/giantswarm/microerror"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/aws/assumerole"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

type Client interface {
	Get(ctx context.Context, input GetIPSetInput) (IPSet, error)
	GetAddresses(ctx context.Context, input GetAddressesInput) (GetAddressesOutput, error)
	Create(ctx context.Context, input CreateIPSetInput) (CreateIPSetOutput, error)
	Update(ctx context.Context, input UpdateIPSetInput) (UpdateIPSetOutput, error)
}

// WAFV2API is the subset of the WAFv2 API used to manage IP sets.
type WAFV2API interface {
	ListIPSets(ctx context.Context, params *wafv2.ListIPSetsInput, optFns ...func(*wafv2.Options)) (*wafv2.ListIPSetsOutput, error)
	ListTagsForResource(ctx context.Context, params *wafv2.ListTagsForResourceInput, optFns ...func(*wafv2.Options)) (*wafv2.ListTagsForResourceOutput, error)
	GetIPSet(ctx context.Context, params *wafv2.GetIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.GetIPSetOutput, error)
	CreateIPSet(ctx context.Context, params *wafv2.CreateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.CreateIPSetOutput, error)
	UpdateIPSet(ctx context.Context, params *wafv2.UpdateIPSetInput, optFns ...func(*wafv2.Options)) (*wafv2.UpdateIPSetOutput, error)
	TagResource(ctx context.Context, params *wafv2.TagResourceInput, optFns ...func(*wafv2.Options)) (*wafv2.TagResourceOutput, error)
}

func NewClient(wafClient WAFV2API, assumeRoleClient assumerole.Client) (Client, error) {
	if wafClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "wafClient must not be empty")
	}
	if assumeRoleClient == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "assumeRoleClient must not be empty")
	}

	return &client{
		wafClient:        wafClient,
		assumeRoleClient: assumeRoleClient,
	}, nil
}

type client struct {
	wafClient        WAFV2API
	assumeRoleClient assumerole.Client
}
