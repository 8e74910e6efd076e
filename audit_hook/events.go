package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionJobSubmitted = "job.submitted"
	ActionJobAssigned  = "job.assigned"
	ActionJobCompleted = "job.completed"
	ActionJobRejected  = "job.rejected"
	ActionWorkerLost   = "worker.lost"
	ActionShutdown     = "cluster.shutdown"
)

// Audit event categories group related actions.
const (
	CategoryJob     = "simulation.job"
	CategoryCluster = "simulation.cluster"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceJob     = "job"
	ResourceWorker  = "worker"
	ResourceCluster = "cluster"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionJobSubmitted,
		ActionJobAssigned,
		ActionJobCompleted,
		ActionJobRejected,
		ActionWorkerLost,
		ActionShutdown,
	}
}
