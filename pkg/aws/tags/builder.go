package tags

import (
	"time"
)

const (
	NameKey      = "Name"
	ManagedByKey = "ManagedBy"
	CreatedAtKey = "CreatedAt"
	UpdatedAtKey = "UpdatedAt"

	// ManagedByValue marks resources owned by this updater. Resources without
	// it are never selected nor mutated.
	ManagedByValue = "update-aws-ip-ranges"

	// Description is set on managed resources and prefix list entries.
	Description = "Managed by update IP ranges"
)

// BuildParams is used to build tags around a managed resource.
type BuildParams struct {
	// Name is the name of the resource, it's applied as the tag "Name" on AWS.
	Name string

	// CreatedAt is set as the "CreatedAt" tag when not zero.
	CreatedAt time.Time

	// UpdatedAt is set as the "UpdatedAt" tag when not zero.
	UpdatedAt time.Time

	// Any additional tags to be added to the resource.
	Additional map[string]string
}

// Build builds tags including the ManagedBy tag and returns them in map form.
func (p BuildParams) Build() map[string]string {
	tags := make(map[string]string)
	for k, v := range p.Additional {
		tags[k] = v
	}

	if p.Name != "" {
		tags[NameKey] = p.Name
	}
	if !p.CreatedAt.IsZero() {
		tags[CreatedAtKey] = Timestamp(p.CreatedAt)
	}
	if !p.UpdatedAt.IsZero() {
		tags[UpdatedAtKey] = Timestamp(p.UpdatedAt)
	}

	tags[ManagedByKey] = ManagedByValue

	return tags
}

// Timestamp formats t the way CreatedAt and UpdatedAt tags are written.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// IsManaged tells whether the tags mark a resource as owned by this updater.
func IsManaged(tags map[string]string) bool {
	return tags[ManagedByKey] == ManagedByValue
}
