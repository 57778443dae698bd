package events

const (
	SubjectChangelogPipelineRun = "changelog.pipeline.run"
)

// ChangelogPipelineRun is the job published by the webhook handler and
// consumed by the pipeline worker. It carries the settings resolved at push
// time; billing and key configuration are re-read by the worker since they
// may change while the job sits in the queue.
type ChangelogPipelineRun struct {
	ProjectID       string `json:"project_id"`
	GitHubRepoID    int64  `json:"github_repo_id"`
	RepoOwner       string `json:"repo_owner"`
	RepoName        string `json:"repo_name"`
	InstallationID  int64  `json:"installation_id"`
	BeforeSHA       string `json:"before_sha"`
	AfterSHA        string `json:"after_sha"`
	VersionSource   string `json:"version_source"`
	VersionStrategy string `json:"version_strategy"`
	PublishMode     string `json:"publish_mode"`
	PlanType        string `json:"plan_type"`
	Slug            string `json:"slug"`
	CustomDomain    string `json:"custom_domain,omitempty"`
}
