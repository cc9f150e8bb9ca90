package ports

import "github.com/aretw0/sapling/pkg/domain"

// Reporter receives the dry-run event stream. Events arrive strictly in
// finalization order; the sequence is finite and ends before the commit
// phase starts.
type Reporter interface {
	// Report delivers one finalized action event.
	Report(event domain.Event)

	// ReportTask announces a registered task. During a dry run tasks are
	// reported but never resolved or executed.
	ReportTask(notice domain.TaskNotice)
}
