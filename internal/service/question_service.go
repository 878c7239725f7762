package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/lshigami/Mockingbird/internal/model"
	"github.com/rs/zerolog/log"
)

// questionCounts fixes how many questions a round gets per (difficulty, type).
var questionCounts = map[string]map[string]int{
	model.DifficultyEasy: {
		model.TypeBehavioral:   3,
		model.TypeTechnical:    2,
		model.TypeCoding:       2,
		model.TypeSystemDesign: 1,
	},
	model.DifficultyMedium: {
		model.TypeBehavioral:   5,
		model.TypeTechnical:    6,
		model.TypeCoding:       3,
		model.TypeSystemDesign: 2,
	},
	model.DifficultyHard: {
		model.TypeBehavioral:   7,
		model.TypeTechnical:    12,
		model.TypeCoding:       5,
		model.TypeSystemDesign: 3,
	},
}

// timeLimitSeconds per concrete question type.
var timeLimitSeconds = map[string]int{
	model.TypeBehavioral:   300,
	model.TypeTechnical:    420,
	model.TypeCoding:       900,
	model.TypeSystemDesign: 1200,
}

// questionSystemPrompts holds the role/domain template per concrete type.
var questionSystemPrompts = map[string]string{
	model.TypeBehavioral: "You are a senior hiring manager conducting behavioral interviews. " +
		"You design questions that surface real past experience using the STAR method (Situation, Task, Action, Result).",
	model.TypeTechnical: "You are a senior %s engineer conducting technical interviews. " +
		"You design knowledge and reasoning questions that test depth of understanding, not trivia.",
	model.TypeCoding: "You are a senior software engineer conducting coding interviews. " +
		"You design implementation problems with clear requirements, realistic constraints and discussable complexity tradeoffs.",
	model.TypeSystemDesign: "You are a principal engineer conducting system design interviews. " +
		"You design open-ended architecture problems that test scalability thinking and tradeoff analysis.",
}

type QuestionService interface {
	// GenerateQuestions returns an ordered question list for an interview whose
	// type has already been resolved to a concrete one. It never fails: any
	// gateway problem degrades to the static bank, tagged is_fallback.
	GenerateQuestions(ctx context.Context, interview *model.Interview, concreteType string) []model.Question
}

type questionService struct {
	llm LLMService
}

func NewQuestionService(llm LLMService) QuestionService {
	return &questionService{llm: llm}
}

// ResolveConcreteType maps "mixed" to a uniformly random concrete type. Any
// concrete type passes through unchanged.
func ResolveConcreteType(interviewType string) string {
	if interviewType != model.TypeMixed {
		return interviewType
	}
	return model.ConcreteTypes[rand.Intn(len(model.ConcreteTypes))]
}

// QuestionCount returns the configured round length for a difficulty/type pair.
func QuestionCount(difficulty, concreteType string) int {
	if byType, ok := questionCounts[difficulty]; ok {
		if n, ok := byType[concreteType]; ok {
			return n
		}
	}
	return 3
}

func (s *questionService) GenerateQuestions(ctx context.Context, interview *model.Interview, concreteType string) []model.Question {
	count := QuestionCount(interview.Difficulty, concreteType)

	doc, err := s.llm.ChatJSON(ctx, s.buildMessages(interview, concreteType, count), GenerationOptions{})
	if err != nil {
		log.Warn().Err(err).Str("type", concreteType).Str("difficulty", interview.Difficulty).
			Msg("Question generation degraded to static bank")
		return fallbackQuestions(concreteType, interview.Difficulty, count)
	}

	questions := s.normalizeQuestions(doc, interview, concreteType, count)
	if len(questions) == 0 {
		log.Warn().Str("type", concreteType).Msg("Model returned no usable questions, using static bank")
		return fallbackQuestions(concreteType, interview.Difficulty, count)
	}
	return questions
}

func (s *questionService) buildMessages(interview *model.Interview, concreteType string, count int) []Message {
	system := questionSystemPrompts[concreteType]
	if strings.Contains(system, "%s") {
		domain := interview.Domain
		if interview.SubDomain != "" {
			domain = interview.Domain + "/" + interview.SubDomain
		}
		system = fmt.Sprintf(system, domain)
	}

	var user strings.Builder
	user.WriteString(fmt.Sprintf("Generate exactly %d %s interview questions of %s difficulty for a %s candidate",
		count, concreteType, interview.Difficulty, interview.Domain))
	if interview.SubDomain != "" {
		user.WriteString(fmt.Sprintf(" specializing in %s", interview.SubDomain))
	}
	if interview.TargetCompany != "" {
		user.WriteString(fmt.Sprintf(", preparing for %s", interview.TargetCompany))
	}
	user.WriteString(".\n\n")
	user.WriteString("Respond with a strict JSON array of question objects. Each object must have:\n")
	user.WriteString(`  "text": the question itself` + "\n")
	user.WriteString(`  "expectedAnswer": an outline of a strong answer` + "\n")
	user.WriteString(`  "hints": array of 2-3 progressive hint strings` + "\n")
	user.WriteString(`  "evaluationCriteria": array of 3-5 criteria strings` + "\n")
	user.WriteString(`  "tags": array of topic tag strings` + "\n")
	user.WriteString("Return only the JSON array, no prose.")

	return []Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: user.String()},
	}
}

// normalizeQuestions is the enforcement boundary between untrusted model JSON
// and canonical Question entities. Missing fields get defaults, the type field
// is forced to the validated concrete type, keys and time limits are assigned
// here and never trusted from the model.
func (s *questionService) normalizeQuestions(doc interface{}, interview *model.Interview, concreteType string, count int) []model.Question {
	items, ok := doc.([]interface{})
	if !ok {
		// Some models wrap the array in an object.
		if wrapper, isMap := doc.(map[string]interface{}); isMap {
			for _, v := range wrapper {
				if arr, isArr := v.([]interface{}); isArr {
					items = arr
					break
				}
			}
		}
	}
	if len(items) == 0 {
		return nil
	}
	if len(items) > count {
		items = items[:count]
	}

	questions := make([]model.Question, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		text := docString(obj, "text", "question")
		if text == "" {
			continue
		}

		hints := docStrings(obj, "hints")
		if len(hints) == 0 {
			hints = []string{"Break the problem into smaller parts.", "Think about a concrete example from your experience."}
		}
		criteria := docStrings(obj, "evaluationCriteria", "evaluation_criteria")
		if len(criteria) == 0 {
			criteria = defaultCriteria(concreteType)
		}
		tags := docStrings(obj, "tags")
		if len(tags) == 0 {
			tags = []string{interview.Domain, concreteType}
		}

		questions = append(questions, model.Question{
			QuestionKey:        fmt.Sprintf("q%d", len(questions)+1),
			Text:               text,
			Type:               concreteType,
			Difficulty:         interview.Difficulty,
			ExpectedAnswer:     docString(obj, "expectedAnswer", "expected_answer"),
			Hints:              hints,
			EvaluationCriteria: criteria,
			Tags:               tags,
			TimeLimitSeconds:   timeLimitSeconds[concreteType],
			MaxHints:           len(hints),
			Skippable:          len(questions) > 0,
			OrderInRound:       len(questions) + 1,
		})
	}
	return questions
}

func defaultCriteria(concreteType string) []string {
	switch concreteType {
	case model.TypeBehavioral:
		return []string{"Situation and task are clear", "Actions are specific and owned", "Result is quantified"}
	case model.TypeCoding:
		return []string{"Correctness", "Complexity analysis", "Readability"}
	case model.TypeSystemDesign:
		return []string{"Requirements clarification", "Scalability", "Tradeoff analysis"}
	default:
		return []string{"Technical accuracy", "Depth of understanding", "Clarity of explanation"}
	}
}

// docString returns the first present string field among the given keys.
func docString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// docStrings returns the first present string-array field among the given keys.
func docStrings(obj map[string]interface{}, keys ...string) []string {
	for _, key := range keys {
		arr, ok := obj[key].([]interface{})
		if !ok {
			continue
		}
		var out []string
		for _, item := range arr {
			if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
				out = append(out, strings.TrimSpace(str))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
