package policy

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/appconfigdata"
	"github.com/giantswarm/microerror"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
)

// Source returns the raw policy document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Load reads the document from source and parses it, logging every skipped
// service entry.
func Load(ctx context.Context, source Source) (Policy, []error, error) {
	logger := log.FromContext(ctx)

	raw, err := source.Load(ctx)
	if err != nil {
		return Policy{}, nil, microerror.Mask(err)
	}

	policy, invalid, err := Parse(raw)
	if err != nil {
		return Policy{}, nil, microerror.Mask(err)
	}
	for _, invalidErr := range invalid {
		logger.Error(invalidErr, "Skipped invalid service entry")
	}
	logger.Info("Loaded service policy", "services", len(policy.Services), "invalid", len(invalid))

	return policy, invalid, nil
}

type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]byte, error) {
	if s.Path == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Path must not be empty", s)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, microerror.Mask(err)
	}

	return data, nil
}

// AppConfigAPI is the subset of the AppConfig Data API the source uses.
type AppConfigAPI interface {
	StartConfigurationSession(ctx context.Context, params *appconfigdata.StartConfigurationSessionInput, optFns ...func(*appconfigdata.Options)) (*appconfigdata.StartConfigurationSessionOutput, error)
	GetLatestConfiguration(ctx context.Context, params *appconfigdata.GetLatestConfigurationInput, optFns ...func(*appconfigdata.Options)) (*appconfigdata.GetLatestConfigurationOutput, error)
}

// AppConfigSource reads the policy from an AWS AppConfig hosted
// configuration profile.
type AppConfigSource struct {
	API           AppConfigAPI
	Application   string
	Environment   string
	Configuration string
}

func (s AppConfigSource) Load(ctx context.Context) (data []byte, err error) {
	logger := log.FromContext(ctx).WithValues("application", s.Application, "environment", s.Environment, "configuration", s.Configuration)
	logger.Info("Started loading policy from AppConfig")
	defer func() {
		if err == nil {
			logger.Info("Finished loading policy from AppConfig")
		} else {
			logger.Error(err, "Failed to load policy from AppConfig")
		}
	}()

	if s.API == nil {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.API must not be empty", s)
	}
	if s.Application == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Application must not be empty", s)
	}
	if s.Environment == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Environment must not be empty", s)
	}
	if s.Configuration == "" {
		return nil, microerror.Maskf(errors.InvalidConfigError, "%T.Configuration must not be empty", s)
	}

	session, err := s.API.StartConfigurationSession(ctx, &appconfigdata.StartConfigurationSessionInput{
		ApplicationIdentifier:          aws.String(s.Application),
		EnvironmentIdentifier:          aws.String(s.Environment),
		ConfigurationProfileIdentifier: aws.String(s.Configuration),
	})
	if err != nil {
		return nil, microerror.Mask(err)
	}

	output, err := s.API.GetLatestConfiguration(ctx, &appconfigdata.GetLatestConfigurationInput{
		ConfigurationToken: session.InitialConfigurationToken,
	})
	if err != nil {
		return nil, microerror.Mask(err)
	}
	if len(output.Configuration) == 0 {
		return nil, microerror.Maskf(errors.PolicyParseError, "AppConfig returned an empty configuration")
	}

	return output.Configuration, nil
}
