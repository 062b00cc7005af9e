package real

import (
	"time"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
)

type retryState int

const (
	stateTrying retryState = iota
	stateWaiting
	stateSucceeded
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case stateTrying:
		return "trying"
	case stateWaiting:
		return "waiting"
	case stateSucceeded:
		return "succeeded"
	}
	return "failed"
}

// retryMachine walks one completion request through its attempts.
//
//	trying(model_i, attempt_j) --ok--------------------------------> succeeded
//	trying --404, model_i not last-------------> trying(model_i+1, attempt_j+1)
//	trying --any, attempt_j == max----------------------------------> failed
//	trying --429/503----------> waiting(hint or default) --> trying(model_i, attempt_j+1)
//	trying --other------------> waiting(base * 2^attempt_j) --> trying(model_i, attempt_j+1)
//
// Attempts are counted from 1. A 404 on the last model is an ordinary failure.
type retryMachine struct {
	models []string
	policy config.RetryConfig

	state   retryState
	model   int
	attempt int
	delay   time.Duration
	reason  errorKind
	last    error

	// lastModel is the model the last failed attempt used.
	lastModel string
}

func newRetryMachine(models []string, policy config.RetryConfig) *retryMachine {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &retryMachine{models: models, policy: policy, state: stateTrying, attempt: 1}
}

func (m *retryMachine) currentModel() string { return m.models[m.model] }

func (m *retryMachine) succeed() { m.state = stateSucceeded }

// fail records a failed attempt and moves to the next state. It reports
// whether the next attempt goes to another model; an exhausted machine never
// advances.
func (m *retryMachine) fail(kind errorKind, hint time.Duration, err error) (advanced bool) {
	m.last = err
	m.reason = kind
	m.lastModel = m.models[m.model]
	if m.attempt >= m.policy.MaxAttempts {
		m.state = stateFailed
		return false
	}
	if kind == kindNotFound && m.model < len(m.models)-1 {
		m.model++
		m.attempt++
		m.state = stateTrying
		return true
	}
	switch kind {
	case kindRateLimited, kindUnavailable:
		m.delay = hint
		if m.delay <= 0 {
			m.delay = m.policy.DefaultRetryDelay
		}
	default:
		m.delay = m.policy.BackoffBase * time.Duration(1<<uint(m.attempt))
	}
	m.state = stateWaiting
	return false
}

// resume leaves the waiting state for the next attempt on the same model.
func (m *retryMachine) resume() {
	if m.state != stateWaiting {
		return
	}
	m.attempt++
	m.state = stateTrying
}
