package filter

import (
	"github.com/s0up4200/uptick/tmdb"
)

// Pipeline applies a fixed set of criteria, including a compiled expression
type Pipeline struct {
	criteria  Criteria
	predicate CompiledFilter
}

// NewPipeline prepares c for repeated application. An expression is compiled
// up front so that Apply itself cannot fail; a nil compiler selects a fresh
// one. c is normalized first.
func NewPipeline(c Criteria, compiler *Compiler) (*Pipeline, error) {
	c = c.Normalize()
	p := &Pipeline{criteria: c}
	if c.Expression == "" {
		return p, nil
	}

	if compiler == nil {
		compiler = NewCompiler()
	}
	predicate, err := compiler.Compile(c.Expression)
	if err != nil {
		return nil, err
	}
	p.predicate = predicate
	return p, nil
}

// Criteria returns the criteria the pipeline was built from
func (p *Pipeline) Criteria() Criteria {
	return p.criteria
}

// Apply narrows list: search, genre, date, then the expression
func (p *Pipeline) Apply(list []tmdb.Movie) []tmdb.Movie {
	if p.criteria.IsZero() {
		return list
	}
	list = Apply(p.criteria, list)
	if p.predicate == nil || list == nil {
		return list
	}
	return keep(list, p.predicate.Evaluate)
}
