package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/cases"

	"github.com/s0up4200/uptick/cache"
	"github.com/s0up4200/uptick/tmdb"
)

// CompiledFilter is a pre-compiled expression ready for evaluation
type CompiledFilter interface {
	// Evaluate reports whether movie satisfies the expression
	Evaluate(movie tmdb.Movie) bool

	// Expression returns the original expression
	Expression() string
}

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache keeps up to size compiled expressions
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = cache.New[CompiledFilter](size, 0)
		}
	}
}

// WithCustomFunctions adds helper functions available to every expression
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler compiles expr-lang expressions over movie fields
type Compiler struct {
	helperFuncs map[string]any
	cache       *cache.LRU[CompiledFilter]
}

// NewCompiler creates an expression compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter. Identifiers that
// are neither movie fields nor helpers are rejected here, not at evaluation.
func (c *Compiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(createRuntimeEnvironment(tmdb.Movie{}, c.helperFuncs)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
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

// Size returns the number of cached expressions
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a movie. Evaluation errors reject the
// movie.
func (f *exprFilter) Evaluate(movie tmdb.Movie) bool {
	result, err := expr.Run(f.program, createRuntimeEnvironment(movie, f.helpers))
	if err != nil {
		return false
	}
	matched, _ := result.(bool)
	return matched
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the movie-independent helper functions
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)

	funcs["includes"] = func(str, substr string) bool {
		fold := cases.Fold()
		return strings.Contains(fold.String(str), fold.String(substr))
	}
	funcs["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	funcs["lower"] = strings.ToLower
	funcs["upper"] = strings.ToUpper
	funcs["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}
	funcs["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	funcs["now"] = time.Now

	return funcs
}

// createRuntimeEnvironment exposes one movie to an expression on top of the
// static helpers. Helpers that read the movie are added as closures.
func createRuntimeEnvironment(movie tmdb.Movie, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+16)
	maps.Copy(env, helpers)

	released, _ := time.Parse("2006-01-02", movie.ReleaseDate)
	genreIDs := movie.GenreIDs
	if genreIDs == nil {
		genreIDs = []int{}
	}

	env["hasGenre"] = func(id int) bool {
		return movie.HasGenre(id)
	}

	env["ID"] = movie.ID
	env["Title"] = movie.Title
	env["Overview"] = movie.Overview
	env["GenreIDs"] = genreIDs
	env["ReleaseDate"] = movie.ReleaseDate
	env["Released"] = released
	env["Year"] = movie.Year()
	env["VoteAverage"] = movie.VoteAverage
	env["VoteCount"] = movie.VoteCount
	env["Popularity"] = movie.Popularity
	env["Language"] = movie.OriginalLanguage
	env["Adult"] = movie.Adult

	return env
}
