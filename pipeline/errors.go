package pipeline

import "fmt"

// StageError reports the pipeline stage and file a failure occurred in
type StageError struct {
	Stage string
	Path  string // Empty when the stage has no single file
	Err   error
}

func (e *StageError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, path string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Path: path, Err: err}
}
