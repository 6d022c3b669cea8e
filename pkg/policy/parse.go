package policy

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/giantswarm/microerror"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/aws-ip-ranges-updater/pkg/errors"
	"github.com/giantswarm/aws-ip-ranges-updater/pkg/ipranges"
)

type rawPolicy struct {
	Services *[]json.RawMessage `json:"Services"`
}

// Parse decodes a JSON or YAML policy document. A document that cannot be
// decoded, or has no Services list, fails as a whole with PolicyParseError.
// Invalid service entries are left out of the returned Policy and reported
// as PolicyValidationError, one per entry.
func Parse(raw []byte) (Policy, []error, error) {
	data, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return Policy{}, nil, microerror.Maskf(errors.PolicyParseError, "%s", err)
	}

	var doc rawPolicy
	err = json.Unmarshal(data, &doc)
	if err != nil {
		return Policy{}, nil, microerror.Maskf(errors.PolicyParseError, "%s", err)
	}
	if doc.Services == nil {
		return Policy{}, nil, microerror.Maskf(errors.PolicyParseError, "policy has no %q list", "Services")
	}

	policy := Policy{
		Services: []Service{},
	}
	var invalid []error
	seen := sets.New[string]()

	for i, rawService := range *doc.Services {
		service, err := decodeService(rawService)
		if err != nil {
			invalid = append(invalid, microerror.Maskf(errors.PolicyValidationError, "Services[%d]: %s", i, err))
			continue
		}

		err = service.Validate()
		if err != nil {
			invalid = append(invalid, microerror.Maskf(errors.PolicyValidationError, "Services[%d] %q: %s", i, service.Name, err))
			continue
		}

		// Services are keyed on the resource names they derive, so
		// API_GATEWAY and api-gateway collide.
		key := service.ResourceName(ipranges.IPv4)
		if seen.Has(key) {
			invalid = append(invalid, microerror.Maskf(errors.PolicyValidationError, "Services[%d] %q: duplicated service, resource name %q is already used", i, service.Name, key))
			continue
		}
		seen.Insert(key)

		policy.Services = append(policy.Services, service)
	}

	return policy, invalid, nil
}

func decodeService(raw json.RawMessage) (Service, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()

	var service Service
	err := decoder.Decode(&service)
	if err != nil {
		return Service{}, err
	}

	return service, nil
}

// Validate checks a single service entry.
func (s Service) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return microerror.Maskf(errors.PolicyValidationError, "Name must not be empty")
	}
	for _, region := range s.Regions {
		if strings.TrimSpace(region) == "" {
			return microerror.Maskf(errors.PolicyValidationError, "Regions must not contain empty values")
		}
	}
	if s.WafIPSet.Enable && len(s.WafIPSet.Scopes) == 0 {
		return microerror.Maskf(errors.PolicyValidationError, "WafIPSet is enabled but has no Scopes")
	}
	scopes := sets.New[Scope]()
	for _, scope := range s.WafIPSet.Scopes {
		if !scope.IsValid() {
			return microerror.Maskf(errors.PolicyValidationError, "unknown WafIPSet scope %q, expected %q or %q", scope, ScopeCloudFront, ScopeRegional)
		}
		if scopes.Has(scope) {
			return microerror.Maskf(errors.PolicyValidationError, "WafIPSet scope %q is listed twice", scope)
		}
		scopes.Insert(scope)
	}

	return nil
}
