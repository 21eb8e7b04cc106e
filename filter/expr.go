package filter

import (
	"errors"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newFilterCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CompileFilter compiles a single expression without caching
func CompileFilter(expression string) (CompiledFilter, error) {
	return NewExprCompiler().Compile(expression)
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *filterCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
			Position:   -1,
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(compileEnvironment(c.helperFuncs)),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		cerr := &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Position:   -1,
			Err:        err,
		}
		var ferr *file.Error
		if errors.As(err, &ferr) {
			cerr.Reason = ferr.Message
			cerr.Position = ferr.Column
		}
		return nil, cerr
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a document
func (f *exprFilter) Evaluate(doc Document) bool {
	ok, err := f.Match(doc)
	return err == nil && ok
}

// Match evaluates the filter against a document and reports runtime errors
func (f *exprFilter) Match(doc Document) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(f.helpers, doc))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			DocumentID: doc.ID,
			Reason:     err.Error(),
			Err:        err,
		}
	}
	// AsBool guarantees the result type
	return result.(bool), nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)

	// Date helpers
	funcs["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	funcs["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	funcs["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	funcs["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	funcs["parseDate"] = func(s string) time.Time {
		t, _ := dateparse.ParseAny(s)
		return t
	}
	// String helpers
	funcs["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	funcs["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	funcs["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	funcs["lower"] = strings.ToLower
	funcs["upper"] = strings.ToUpper
	funcs["now"] = time.Now

	return funcs
}

// compileEnvironment types the document variables and helpers for the checker
func compileEnvironment(helpers map[string]any) map[string]any {
	return createRuntimeEnvironment(helpers, Document{})
}

// createRuntimeEnvironment creates the runtime environment for filter evaluation
func createRuntimeEnvironment(helpers map[string]any, doc Document) map[string]any {
	env := make(map[string]any, len(helpers)+24)
	maps.Copy(env, helpers)

	env["Doc"] = doc

	// Document helpers
	env["hasTag"] = createHasTagFunc(doc.TagNames)
	env["hasAnyTag"] = createHasAnyTagFunc(doc.TagNames)
	env["hasNoTags"] = func() bool { return len(doc.TagIDs) == 0 }
	env["from"] = func(name string) bool { return strings.EqualFold(doc.Correspondent, name) }
	env["isType"] = func(name string) bool { return strings.EqualFold(doc.DocumentType, name) }

	// Direct document properties for convenience
	env["ID"] = doc.ID
	env["Title"] = doc.Title
	env["Content"] = doc.Content
	env["Created"] = doc.Created
	env["Added"] = doc.Added
	env["Modified"] = doc.Modified
	env["Tags"] = doc.TagNames
	env["TagIDs"] = doc.TagIDs
	env["Correspondent"] = doc.Correspondent
	env["DocumentType"] = doc.DocumentType
	env["ASN"] = doc.ASN
	env["FileName"] = doc.OriginalFileName
	env["MimeType"] = doc.MimeType
	env["PageCount"] = doc.PageCount
	env["NoteCount"] = doc.NoteCount
	env["Owner"] = doc.Owner

	return env
}

func createHasTagFunc(tags []string) func(string) bool {
	lowerTags := make([]string, len(tags))
	for i, tag := range tags {
		lowerTags[i] = strings.ToLower(tag)
	}
	return func(tag string) bool {
		return slices.Contains(lowerTags, strings.ToLower(tag))
	}
}

func createHasAnyTagFunc(tags []string) func(...string) bool {
	hasTag := createHasTagFunc(tags)
	return func(candidates ...string) bool {
		return slices.ContainsFunc(candidates, hasTag)
	}
}
