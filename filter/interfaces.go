package filter

import (
	"context"
)

// Filter defines the basic interface for document filters
type Filter interface {
	// Evaluate checks if a document matches the filter criteria. Evaluation
	// errors count as no match.
	Evaluate(doc Document) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the evaluation error reported
	Match(doc Document) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// Evaluator evaluates filters against documents
type Evaluator interface {
	// Evaluate evaluates a filter against all documents
	Evaluate(ctx context.Context, filter CompiledFilter, docs []Document) ([]Document, error)
}

// BatchEvaluator evaluates multiple filters concurrently
type BatchEvaluator interface {
	// EvaluateBatch evaluates multiple filters against documents concurrently
	EvaluateBatch(ctx context.Context, filters map[string]CompiledFilter, docs []Document) (map[string][]Document, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
