package model

import "fmt"

// Remote export job status codes.
const (
	// JobStatusSuccess means the file is ready for download.
	JobStatusSuccess = 0

	// JobStatusInitializing means the job was accepted but has not started.
	JobStatusInitializing = 1

	// JobStatusProcessing means the job is running.
	JobStatusProcessing = 2
)

// JobState is the tag of a JobResult.
type JobState int

const (
	// JobPending means the job has not reached a terminal state yet.
	JobPending JobState = iota
	// JobSucceeded means the job finished and FileToken is set.
	JobSucceeded
	// JobFailed means the job terminated without a file.
	JobFailed
)

// String returns the state name.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobResult is the classified outcome of one status query.
// FileToken is only meaningful for JobSucceeded; Code and Message only for
// JobFailed.
type JobResult struct {
	State     JobState `json:"state"`
	FileToken string   `json:"file_token,omitempty"`
	Code      int      `json:"code,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// ClassifyJobStatus maps a raw job status code to a JobResult.
// 0 is success, 1 and 2 are still running, anything else is a failure.
func ClassifyJobStatus(status int, fileToken, message string) JobResult {
	switch status {
	case JobStatusSuccess:
		return JobResult{State: JobSucceeded, FileToken: fileToken}
	case JobStatusInitializing, JobStatusProcessing:
		return JobResult{State: JobPending}
	default:
		return JobResult{State: JobFailed, Code: status, Message: message}
	}
}

// ExportJob associates a TreeNode with its export execution.
type ExportJob struct {
	// Node is the exported node.
	Node *TreeNode `json:"-"`

	// Index is the node's position in the discovery sequence.
	Index int `json:"index"`

	// Ticket is returned by job submission and used to poll status.
	Ticket string `json:"ticket,omitempty"`

	// Result is the terminal result of the job.
	Result JobResult `json:"result"`

	// Path is the local file the export was downloaded to.
	Path string `json:"path,omitempty"`

	// Size is the number of bytes downloaded.
	Size int64 `json:"size,omitempty"`
}

// FileName returns the working directory file name for a node index.
func FileName(index int) string {
	return fmt.Sprintf("%d.pdf", index)
}
