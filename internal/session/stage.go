package session

// Stage is the workflow position of a tailoring session. The flow is
// start -> waiting_job_description -> processing_llm -> job_exploration,
// with menu returning to start and a pipeline failure falling back to
// waiting_job_description.
type Stage int

const (
	StageStart Stage = iota
	StageWaitingJob
	StageProcessing
	StageExploration
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageWaitingJob:
		return "waiting_job_description"
	case StageProcessing:
		return "processing_llm"
	case StageExploration:
		return "job_exploration"
	default:
		return "unknown"
	}
}
