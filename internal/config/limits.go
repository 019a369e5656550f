package config

const (
	// DefaultModel is the chat model used for decomposition when the
	// request does not name one.
	DefaultModel = "gpt-4o"

	// DefaultJudgeModel classifies prove-run output as correct or not.
	DefaultJudgeModel = "gpt-4o"

	// DefaultMaxTokens is the decomposition output budget.
	DefaultMaxTokens = 1500

	// DefaultTemperature is the decomposition sampling temperature.
	DefaultTemperature = 0.2

	// DefaultFanOutCap is the number of substeps per step the
	// decomposition prompt asks for at most.
	DefaultFanOutCap = 5

	// DefaultTheorem is decomposed by the judge fallback when the
	// original theorem is unknown.
	DefaultTheorem = "The equation x^2 + 2x = i has two complex solutions and determine the product of their real parts."

	// MaxTheoremLength bounds the theorem text accepted from callers.
	MaxTheoremLength = 20000

	// MaxOutputTokens bounds the max_tokens a caller may request.
	MaxOutputTokens = 32000

	// MaxTemperature is the upper bound accepted for sampling temperature.
	MaxTemperature = 2.0

	// MaxRequestBodyBytes limits JSON request bodies.
	MaxRequestBodyBytes = 10 << 20
)
