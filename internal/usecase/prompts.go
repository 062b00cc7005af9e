package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai/tokencount"
	obs "github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
	obsctx "github.com/fairyhunter13/ai-interview-engine/internal/observability"
)

// Prompts renders the generation, scoring and summary prompts. Résumé text
// is cut to MaxSourceTokens before it is embedded.
type Prompts struct {
	Counter         *tokencount.Counter
	MaxSourceTokens int
}

// NewPrompts returns a Prompts using the shared token counter.
func NewPrompts(maxSourceTokens int) Prompts {
	return Prompts{Counter: tokencount.DefaultCounter, MaxSourceTokens: maxSourceTokens}
}

func (p Prompts) counter() *tokencount.Counter {
	if p.Counter == nil {
		return tokencount.DefaultCounter
	}
	return p.Counter
}

func (p Prompts) observe(stage, prompt string) string {
	obs.ObservePromptTokens(stage, p.counter().EstimateTokens(prompt))
	return prompt
}

var difficultyGuidance = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "Test fundamental concepts.",
	domain.DifficultyMedium: "Scenario-based problem solving.",
	domain.DifficultyHard:   "Algorithmic thinking; every option is a short pseudocode or code snippet.",
}

// Question builds the prompt for one question of the given difficulty.
func (p Prompts) Question(ctx domain.Context, profile domain.CandidateProfile, d domain.Difficulty) string {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = FallbackCandidateName
	}
	source := strings.TrimSpace(profile.SourceText)
	if source == "" {
		source = "No resume content provided"
	} else if cut, truncated := p.counter().Truncate(source, p.MaxSourceTokens); truncated {
		obsctx.LoggerFromContext(ctx).Debug("resume text truncated for prompt", slog.Int("max_tokens", p.MaxSourceTokens))
		source = cut
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant generating interview questions for a Full Stack Developer (React + Node.js) role.\n")
	fmt.Fprintf(&b, "Difficulty: %s (easy, medium, or hard)\n\n", d)
	b.WriteString(`Format the output as VALID JSON:
{
  "question": "Your question here",
  "options": ["Option A", "Option B", "Option C", "Option D"],
  "answer": "Correct option letter (A/B/C/D)",
  "explanation": "Brief explanation of why the answer is correct"
}

Guidelines:
- Make questions clear and concise.
- Provide exactly four options.
- Ensure each question is unique and non-repetitive.
- Focus on practical, real-world scenarios.
`)
	fmt.Fprintf(&b, "- %s\n\n", difficultyGuidance[d])
	b.WriteString("Candidate Information:\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Resume Content: %s\n", source)
	return p.observe(stageQuestions, b.String())
}

// Score builds the rubric prompt for one answer.
func (p Prompts) Score(q domain.Question, answerText string) string {
	var b strings.Builder
	b.WriteString("You are an AI interviewer evaluating a candidate's answer.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", q.Prompt)
	fmt.Fprintf(&b, "Candidate Answer: %s\n", answerText)
	fmt.Fprintf(&b, "Correct Answer: %s\n", q.CorrectOptionText())
	fmt.Fprintf(&b, "Difficulty Level: %s\n\n", q.Difficulty)
	b.WriteString(`Score the answer from 0 to 100 based on:
1. Technical Accuracy (40%): Is the answer technically correct?
2. Completeness (30%): Does it cover all aspects of the question?
3. Clarity (20%): Is the explanation clear and well-structured?
4. Depth (10%): Does it show deep understanding of the concept?

Return VALID JSON like:
{
  "score": 75,
  "feedback": "Brief feedback for the candidate explaining what was good and what could be improved"
}

IMPORTANT:
- Provide specific, actionable feedback
- Consider the difficulty level when scoring
- Return an integer score
- Do not include any markdown formatting or backticks
`)
	return p.observe(stageScore, b.String())
}

// performanceRow is one line of the summary prompt's data table.
type performanceRow struct {
	Question        string            `json:"question"`
	CandidateAnswer string            `json:"candidateAnswer"`
	Score           int               `json:"score"`
	Feedback        string            `json:"feedback"`
	Difficulty      domain.Difficulty `json:"difficulty"`
}

// performanceTable pairs every question with its scored answer, if any.
func performanceTable(qs domain.QuestionSet, answers []domain.ScoredAnswer) []performanceRow {
	byID := make(map[int]domain.ScoredAnswer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}
	rows := make([]performanceRow, 0, len(qs))
	for _, q := range qs {
		row := performanceRow{Question: q.Prompt, CandidateAnswer: noAnswerText, Feedback: "No feedback provided", Difficulty: q.Difficulty}
		if a, ok := byID[q.ID]; ok {
			if t := q.OptionText(a.SelectedOption); t != "" {
				row.CandidateAnswer = t
			}
			row.Score = a.Score
			if a.Feedback != "" {
				row.Feedback = a.Feedback
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Summary builds the prompt for the end-of-interview summary.
func (p Prompts) Summary(qs domain.QuestionSet, answers []domain.ScoredAnswer) (string, error) {
	table, err := json.MarshalIndent(performanceTable(qs, answers), "", "  ")
	if err != nil {
		return "", fmt.Errorf("op=prompts.Summary: %w", err)
	}
	var b strings.Builder
	b.WriteString("You are an AI interviewer summarizing a candidate's performance.\n\n")
	b.WriteString("Candidate Performance Data:\n")
	b.Write(table)
	b.WriteString(`

Generate a professional 3-4 sentence summary, including:
1. Overall strengths
2. Areas to improve
3. General recommendation for hiring

Return VALID JSON like:
{
  "score": 85,
  "summary": "Candidate shows strong React skills but needs improvement in backend optimization...",
  "strengths": "List 2-3 key strengths",
  "improvements": "List 2-3 areas for improvement",
  "recommendation": "Hiring recommendation with role level"
}

IMPORTANT:
- Base the overall score on individual question scores
- Provide specific, actionable insights
- Tailor recommendation to candidate's performance level
- Do not include any markdown formatting or backticks
`)
	return p.observe(stageSummary, b.String()), nil
}
