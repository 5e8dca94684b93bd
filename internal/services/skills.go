package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/tokenizer"
)

// SkillExtractor pulls normalized skill terms out of free text. The same
// instance is applied to the job description and to every resume.
type SkillExtractor interface {
	Name() string
	Extract(text string) models.SkillSet
}

const maxPhraseTokens = 3

// Vocabulary maps known phrases and their aliases onto canonical skill terms.
type Vocabulary struct {
	phrases map[string]string
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{phrases: make(map[string]string)}
}

// Add registers phrase as a spelling of canonical. Phrases longer than three
// tokens are rejected.
func (v *Vocabulary) Add(phrase, canonical string) error {
	tokens := skillTokens(phrase)
	if len(tokens) == 0 {
		return fmt.Errorf("empty vocabulary phrase %q", phrase)
	}
	if len(tokens) > maxPhraseTokens {
		return fmt.Errorf("vocabulary phrase %q has more than %d tokens", phrase, maxPhraseTokens)
	}

	canonical = strings.ToLower(strings.TrimSpace(canonical))
	if canonical == "" {
		return fmt.Errorf("empty canonical term for %q", phrase)
	}

	v.phrases[strings.Join(tokens, " ")] = canonical
	return nil
}

func (v *Vocabulary) Len() int {
	return len(v.phrases)
}

// Load reads one term per line. "alias=canonical" lines add an alias and
// lines starting with # are comments.
func (v *Vocabulary) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		phrase, canonical := line, line
		if alias, target, ok := strings.Cut(line, "="); ok {
			phrase, canonical = alias, target
		}

		if err := v.Add(phrase, canonical); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read vocabulary: %w", err)
	}
	return nil
}

func (v *Vocabulary) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()

	if err := v.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (v *Vocabulary) lookup(tokens []string) (string, bool) {
	canonical, ok := v.phrases[strings.Join(tokens, " ")]
	return canonical, ok
}

var defaultSkills = []string{
	// languages
	"python", "java", "go", "rust", "c++", "c#", "javascript", "typescript", "ruby",
	"php", "scala", "kotlin", "swift", "perl", "bash", "sql", "html", "css", "matlab",
	// frameworks and libraries
	"django", "flask", "fastapi", "spring", "spring boot", "react", "angular", "vue",
	"node.js", "express", "next.js", ".net", "ruby on rails", "laravel", "pandas",
	"numpy", "scikit-learn", "tensorflow", "pytorch", "keras", "spark", "hadoop",
	"graphql", "grpc", "rest api", "microservices",
	// data stores and messaging
	"postgresql", "mysql", "sqlite", "mongodb", "redis", "elasticsearch", "cassandra",
	"dynamodb", "kafka", "rabbitmq", "snowflake", "bigquery",
	// infrastructure
	"docker", "kubernetes", "terraform", "ansible", "helm", "jenkins", "ci/cd", "git",
	"linux", "aws", "azure", "gcp", "prometheus", "grafana", "nginx", "serverless",
	// practices and domains
	"machine learning", "deep learning", "natural language processing", "computer vision",
	"data analysis", "data engineering", "data visualization", "statistics", "etl",
	"agile", "scrum", "devops", "unit testing", "tableau", "power bi", "excel",
	"project management",
}

var defaultAliases = map[string]string{
	"golang":              "go",
	"k8s":                 "kubernetes",
	"postgres":            "postgresql",
	"psql":                "postgresql",
	"js":                  "javascript",
	"ts":                  "typescript",
	"node":                "node.js",
	"nodejs":              "node.js",
	"reactjs":             "react",
	"react.js":            "react",
	"vue.js":              "vue",
	"vuejs":               "vue",
	"nextjs":              "next.js",
	"dotnet":              ".net",
	"rails":               "ruby on rails",
	"sklearn":             "scikit-learn",
	"mongo":               "mongodb",
	"elastic search":      "elasticsearch",
	"amazon web services": "aws",
	"google cloud":        "gcp",
	"microsoft azure":     "azure",
	"ml":                  "machine learning",
	"nlp":                 "natural language processing",
	"restful api":         "rest api",
	"restful apis":        "rest api",
	"rest apis":           "rest api",
	"ci cd":               "ci/cd",
	"cicd":                "ci/cd",
	"c sharp":             "c#",
	"cpp":                 "c++",
	"springboot":          "spring boot",
	"powerbi":             "power bi",
	"microservice":        "microservices",
}

// DefaultVocabulary returns the built-in technology vocabulary.
func DefaultVocabulary() *Vocabulary {
	v := NewVocabulary()
	for _, term := range defaultSkills {
		if err := v.Add(term, term); err != nil {
			panic(err)
		}
	}
	for alias, canonical := range defaultAliases {
		if err := v.Add(alias, canonical); err != nil {
			panic(err)
		}
	}
	return v
}

type vocabularySkillExtractor struct {
	vocabulary *Vocabulary
}

// NewVocabularySkillExtractor matches text against vocabulary, preferring the
// longest phrase at each position. Matching is case-insensitive and has no
// notion of context, so vocabulary words that are also plain English ("go",
// "excel", "spring", "express", "swift", "rust") match in ordinary prose too:
// "I go to work" yields {go}. Job and resume text go through the same
// extractor, so such a match only counts when both sides contain the word.
func NewVocabularySkillExtractor(vocabulary *Vocabulary) SkillExtractor {
	return &vocabularySkillExtractor{vocabulary: vocabulary}
}

func (e *vocabularySkillExtractor) Name() string {
	return "vocabulary"
}

// Extract implements SkillExtractor.
func (e *vocabularySkillExtractor) Extract(text string) models.SkillSet {
	skills := models.SkillSet{}
	tokens := skillTokens(text)

	for i := 0; i < len(tokens); {
		matched := 0
		for n := min(maxPhraseTokens, len(tokens)-i); n > 0; n-- {
			if canonical, ok := e.vocabulary.lookup(tokens[i : i+n]); ok {
				skills.Add(canonical)
				matched = n
				break
			}
		}
		if matched > 0 {
			i += matched
			continue
		}

		// "python/django" style lists
		if strings.Contains(tokens[i], "/") {
			for _, part := range strings.Split(tokens[i], "/") {
				if canonical, ok := e.vocabulary.lookup([]string{part}); ok {
					skills.Add(canonical)
				}
			}
		}
		i++
	}

	return skills
}

// skillTokens lower-cases text and splits it so that terms like c++, c#,
// node.js and ci/cd survive as single tokens.
func skillTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '+', '#', '.', '/':
			return false
		}
		return true
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		// sentence punctuation and dangling separators
		f = strings.TrimRight(f, "./")
		f = strings.TrimLeft(f, "/")
		if f == "" {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

var nounTags = map[string]struct{}{
	"NN": {}, "NNS": {}, "NNP": {}, "NNPS": {},
}

type lexicalSkillExtractor struct {
	logger *zap.Logger
}

// NewLexicalSkillExtractor treats every noun in the text as a skill term.
func NewLexicalSkillExtractor(logger *zap.Logger) SkillExtractor {
	return &lexicalSkillExtractor{logger: logger}
}

func (e *lexicalSkillExtractor) Name() string {
	return "lexical"
}

// Extract implements SkillExtractor.
func (e *lexicalSkillExtractor) Extract(text string) models.SkillSet {
	skills := models.SkillSet{}
	if strings.TrimSpace(text) == "" {
		return skills
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		e.logger.Warn("POS tagging failed", zap.Error(err))
		return skills
	}

	for _, tok := range doc.Tokens() {
		if _, ok := nounTags[tok.Tag]; !ok {
			continue
		}
		term := strings.ToLower(tok.Text)
		if utf8.RuneCountInString(term) < 2 || tokenizer.IsStopWord(term) {
			continue
		}
		skills.Add(term)
	}

	return skills
}
