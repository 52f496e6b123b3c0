// Package workflow implements the document submission state machine behind
// the indexing panel.
//
// A submission runs guard → validate → submit → report:
//
//	Idle ──submit──▶ Validating ──parsed──▶ Submitting ──▶ Succeeded | Failed
//	  ▲                  │                                      │
//	  └── guard failed   └──▶ Failed (empty or invalid JSON)    └── next submit
//
// The selection and the document buffer belong to the caller and are passed
// in on every call. The controller owns only the workflow state.
package workflow
