package real

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interview-engine/internal/config"
)

var testPolicy = config.RetryConfig{MaxAttempts: 3, DefaultRetryDelay: 2 * time.Second, BackoffBase: time.Second}

func TestRetryMachine_NotFoundAdvancesModelWithoutWaiting(t *testing.T) {
	m := newRetryMachine([]string{"a", "b", "c"}, testPolicy)
	errNF := errors.New("404")

	assert.True(t, m.fail(kindNotFound, 0, errNF))
	assert.Equal(t, stateTrying, m.state)
	assert.Equal(t, "b", m.currentModel())
	assert.Equal(t, 2, m.attempt)

	assert.True(t, m.fail(kindNotFound, 0, errNF))
	assert.Equal(t, "c", m.currentModel())
	assert.Equal(t, 3, m.attempt)

	assert.False(t, m.fail(kindNotFound, 0, errNF))
	assert.Equal(t, stateFailed, m.state)
	assert.Equal(t, "c", m.lastModel)
	assert.Same(t, errNF, m.last)
}

func TestRetryMachine_NotFoundOnLastModelIsOrdinaryFailure(t *testing.T) {
	m := newRetryMachine([]string{"only"}, testPolicy)
	assert.False(t, m.fail(kindNotFound, 0, errors.New("404")))
	assert.Equal(t, stateWaiting, m.state)
	assert.Equal(t, 2*time.Second, m.delay)
}

func TestRetryMachine_NotFoundOnFinalAttemptFails(t *testing.T) {
	m := newRetryMachine([]string{"a", "b"}, config.RetryConfig{MaxAttempts: 1})
	assert.False(t, m.fail(kindNotFound, 0, errors.New("404")))
	assert.Equal(t, stateFailed, m.state)
	assert.Equal(t, "a", m.lastModel)
	assert.Equal(t, "a", m.currentModel(), "no model is skipped to once attempts run out")
}

func TestRetryMachine_RateLimitUsesHintThenDefault(t *testing.T) {
	m := newRetryMachine([]string{"a", "b"}, testPolicy)

	m.fail(kindRateLimited, 27*time.Second, errors.New("429"))
	assert.Equal(t, stateWaiting, m.state)
	assert.Equal(t, 27*time.Second, m.delay)
	m.resume()
	assert.Equal(t, stateTrying, m.state)
	assert.Equal(t, 2, m.attempt)
	assert.Equal(t, "a", m.currentModel(), "rate limits never advance the model")

	m.fail(kindUnavailable, 0, errors.New("503"))
	assert.Equal(t, 2*time.Second, m.delay)
	m.resume()

	m.fail(kindRateLimited, time.Second, errors.New("429"))
	assert.Equal(t, stateFailed, m.state)
	assert.Equal(t, 3, m.attempt)
}

func TestRetryMachine_OtherFailuresBackOffExponentially(t *testing.T) {
	m := newRetryMachine([]string{"a"}, testPolicy)

	m.fail(kindOther, 0, errors.New("500"))
	assert.Equal(t, 2*time.Second, m.delay)
	m.resume()
	m.fail(kindOther, 0, errors.New("500"))
	assert.Equal(t, 4*time.Second, m.delay)
	m.resume()
	m.fail(kindOther, 0, errors.New("500"))
	assert.Equal(t, stateFailed, m.state)
}

func TestRetryMachine_ResumeOnlyFromWaiting(t *testing.T) {
	m := newRetryMachine([]string{"a"}, testPolicy)
	m.resume()
	assert.Equal(t, 1, m.attempt)
	m.succeed()
	m.resume()
	assert.Equal(t, stateSucceeded, m.state)
}

func TestRetryMachine_NonPositiveMaxAttempts(t *testing.T) {
	m := newRetryMachine([]string{"a"}, config.RetryConfig{})
	m.fail(kindOther, 0, errors.New("x"))
	assert.Equal(t, stateFailed, m.state)
}

func TestRetryState_String(t *testing.T) {
	assert.Equal(t, "trying", stateTrying.String())
	assert.Equal(t, "waiting", stateWaiting.String())
	assert.Equal(t, "succeeded", stateSucceeded.String())
	assert.Equal(t, "failed", stateFailed.String())
}
