package feedback

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed script.yaml
var defaultScript []byte

// Suggestion is a canned answer the founder can pick instead of typing.
type Suggestion struct {
	Label string `yaml:"label" json:"label"`
	Text  string `yaml:"text" json:"text"`
}

// Assessment is the fixed investor-readiness feedback delivered at the end of
// the interview.
type Assessment struct {
	Intro        string   `yaml:"intro" json:"-"`
	Strengths    []string `yaml:"strengths" json:"strengths"`
	Improvements []string `yaml:"improvements" json:"improvements"`
	Score        int      `yaml:"score" json:"score"`
	Closing      string   `yaml:"closing" json:"-"`
}

// Questions holds the follow-up asked after each founder answer.
type Questions struct {
	Problem      string `yaml:"problem"`
	Solution     string `yaml:"solution"`
	Market       string `yaml:"market"`
	Team         string `yaml:"team"`
	Milestones   string `yaml:"milestones"`
	OfferSummary string `yaml:"offer_summary"`
}

// Script is the full set of pre-authored interview content.
type Script struct {
	Greeting    string                  `yaml:"greeting"`
	Questions   Questions               `yaml:"questions"`
	Fallback    string                  `yaml:"fallback"`
	Assessment  Assessment              `yaml:"assessment"`
	Suggestions map[string][]Suggestion `yaml:"suggestions"`
}

// ParseScript decodes and validates a YAML interview script.
func ParseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("decode interview script: %w", err)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// DefaultScript returns the embedded investor interview.
func DefaultScript() (*Script, error) {
	return ParseScript(defaultScript)
}

// MustDefaultScript is DefaultScript for package initialisation paths.
func MustDefaultScript() *Script {
	script, err := DefaultScript()
	if err != nil {
		panic(err)
	}
	return script
}

// Validate reports missing required lines.
func (s *Script) Validate() error {
	required := map[string]string{
		"greeting":                s.Greeting,
		"questions.problem":       s.Questions.Problem,
		"questions.solution":      s.Questions.Solution,
		"questions.market":        s.Questions.Market,
		"questions.team":          s.Questions.Team,
		"questions.milestones":    s.Questions.Milestones,
		"questions.offer_summary": s.Questions.OfferSummary,
		"fallback":                s.Fallback,
	}

	var missing []string
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("interview script missing: %s", strings.Join(missing, ", "))
	}
	if s.Assessment.Score < 0 || s.Assessment.Score > 100 {
		return errors.New("interview script assessment score must be within 0..100")
	}
	return nil
}

// SummaryReply renders the final feedback message.
func (s *Script) SummaryReply() string {
	a := s.Assessment

	var b strings.Builder
	b.WriteString(a.Intro)
	b.WriteString("\n\n**Strengths**\n")
	for _, item := range a.Strengths {
		b.WriteString("• ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("\n**Areas for Improvement**\n")
	for _, item := range a.Improvements {
		b.WriteString("• ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n**Investor Ready Score: %d/100**", a.Score)
	if a.Closing != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Closing)
	}
	return b.String()
}
