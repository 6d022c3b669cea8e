package aws

type ReconcileRequest[TResourceSpec any] struct {
	CloudResourceRequest[TResourceSpec]
}

type CloudResourceRequest[TResourceSpec any] struct {
	// RoleARN is assumed for every API call. Empty means the default
	// credentials chain is used as is.
	RoleARN string
	Region  string
	Spec    TResourceSpec
}

type ReconcileResult[TResourceStatus any] struct {
	Action Action
	Status TResourceStatus
}

// Action tells what a reconciler did to the cloud resource.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)
