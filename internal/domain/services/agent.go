package services

import "context"

// AgentRunner submits an instruction to an agentic run service and blocks
// until the run reaches a terminal state.
type AgentRunner interface {
	// Run returns the run's final free-text result.
	Run(ctx context.Context, input string, tools []string) (string, error)
}
