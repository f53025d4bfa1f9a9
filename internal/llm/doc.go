// Package llm is the language model capability used by the tutorial pipeline.
//
// The pipeline only needs Generator: a prompt in, text out, or an error.
// OpenAIClient implements it against any OpenAI compatible chat completions
// endpoint. Classify maps client failures onto the error taxonomy that the
// retry policy understands, and Metered adds per-call timeouts, logging and
// metrics around any Generator.
package llm
