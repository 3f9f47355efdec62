package constants

// AppName names the config and state directories.
const AppName = "hostprep"

// Defaults for the analysis workload. The branch and repository URL are
// normally overridden from config.yaml or flags.
const (
	DefaultBranch         = "master"
	DefaultCloneDir       = "data-pipeline"
	DefaultImageName      = "data-pipeline"
	DefaultRepositoryName = "data-pipeline-docker"
)

// Registry modes.
const (
	RegistryModeSDK = "sdk"
	RegistryModeCLI = "cli"
)

// RegistryUsername is the fixed docker login user for ECR.
const RegistryUsername = "AWS"
