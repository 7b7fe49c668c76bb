package models

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Example is a worked input/output pair shown in the problem panel.
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// TestCase is a hidden input/expected-output pair.
type TestCase struct {
	Input          string `json:"input" yaml:"input"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
}

// Question is a contest problem.
type Question struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Description string     `json:"description" yaml:"description"`
	Constraints []string   `json:"constraints" yaml:"constraints"`
	Examples    []Example  `json:"examples" yaml:"examples"`
	TestCases   []TestCase `json:"test_cases" yaml:"test_cases"`
	Tags        []string   `json:"tags" yaml:"tags"`
	Keywords    []string   `json:"keywords" yaml:"keywords"`
	TimeLimit   int        `json:"time_limit" yaml:"time_limit"`     // ms
	MemoryLimit int        `json:"memory_limit" yaml:"memory_limit"` // MB
}
