// Package prompt renders the prompts sent to the language model.
//
// Templates are embedded text/template files, one per pipeline step:
// identify, relationships, order and chapter. Source files are inlined as
// numbered blocks so the model can refer to them by index, and FitBudget
// keeps the inlined content under the configured prompt budget by
// truncating the largest files first.
package prompt
