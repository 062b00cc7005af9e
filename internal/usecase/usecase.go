// Package usecase contains the interview pipeline services: résumé
// extraction, question generation, answer scoring and summaries.
package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	obs "github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// Cache stage labels, also used as metric labels.
const (
	stageQuestions = "questions"
	stageScore     = "score"
	stageSummary   = "summary"
)

// Random is a mutex-guarded random source shared by shuffles and the
// service-independent content pools.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

var defaultRandom = NewRandom()

// NewRandom returns a source seeded from the clock.
func NewRandom() *Random {
	now := uint64(time.Now().UnixNano())
	return NewSeededRandom(now)
}

// NewSeededRandom returns a deterministic source.
func NewSeededRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a value in [0,n).
func (r *Random) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.IntN(n)
}

// Between returns a value in [lo,hi].
func (r *Random) Between(lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

func randomOr(r *Random) *Random {
	if r == nil {
		return defaultRandom
	}
	return r
}

// Pick returns a random element of pool.
func (r *Random) Pick(pool []string) string {
	return pool[r.IntN(len(pool))]
}

// Perm returns a random permutation of [0,n) built with Fisher–Yates.
func (r *Random) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := n - 1; i > 0; i-- {
		j := r.r.IntN(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}

// QuestionsCacheKey keys a question set by candidate identity.
func QuestionsCacheKey(p domain.CandidateProfile) string {
	return "interview_questions_" + orUnknown(p.Name) + "_" + orUnknown(p.Email)
}

// ScoreCacheKey keys a score by question id, a digest of the question
// content and the selected option text. Ids are positions within a set, so
// the digest keeps different questions sharing an id apart.
func ScoreCacheKey(q domain.Question, answerText string) string {
	return "answer_score_" + strconv.Itoa(q.ID) + "_" + QuestionDigest(q) + "_" + answerText
}

// SummaryCacheKey keys a summary by the fingerprint of the questions and
// the scored answers.
func SummaryCacheKey(qs domain.QuestionSet, answers []domain.ScoredAnswer) string {
	return "candidate_summary_" + Fingerprint(qs, answers)
}

// QuestionDigest is the first 12 hex chars of SHA-256 over the prompt,
// options and correct letter.
func QuestionDigest(q domain.Question) string {
	h := sha256.New()
	h.Write([]byte(q.Prompt))
	for _, o := range q.Options {
		h.Write([]byte{0x1f})
		h.Write([]byte(o))
	}
	h.Write([]byte{0x1e})
	h.Write([]byte(q.CorrectOption))
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// Fingerprint is the first 16 hex chars of SHA-256 over every question
// (id and content digest) and every scored answer (question id, selected
// option, score and feedback), in order.
func Fingerprint(qs domain.QuestionSet, answers []domain.ScoredAnswer) string {
	h := sha256.New()
	h.Write([]byte("q:"))
	for _, q := range qs {
		fmt.Fprintf(h, "%d:%s,", q.ID, QuestionDigest(q))
	}
	h.Write([]byte("|a:"))
	for _, a := range answers {
		fmt.Fprintf(h, "%d:%s:%d:%q,", a.QuestionID, a.SelectedOption, a.Score, a.Feedback)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// cacheLoad decodes a cached JSON value into v. Read errors and undecodable
// entries count as misses.
func cacheLoad(ctx domain.Context, c domain.CacheStore, stage, key string, v any) bool {
	if c == nil {
		return false
	}
	lg := obsctx.LoggerFromContext(ctx)
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		lg.Warn("cache read failed", slog.String("stage", stage), slog.Any("error", err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), v); err != nil {
			lg.Warn("cached entry unreadable", slog.String("stage", stage), slog.Any("error", err))
			ok = false
		}
	}
	obs.RecordCacheLookup(stage, ok)
	return ok
}

// cacheStore writes v as JSON. Write failures are logged, never returned:
// the value is still valid for the caller.
func cacheStore(ctx domain.Context, c domain.CacheStore, stage, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		obsctx.LoggerFromContext(ctx).Error("cache encode failed", slog.String("stage", stage), slog.Any("error", err))
		return
	}
	if err := c.Set(ctx, key, string(b)); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("cache write failed", slog.String("stage", stage), slog.Any("error", err))
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx domain.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}
