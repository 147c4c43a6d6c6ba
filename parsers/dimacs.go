// Package parsers loads DIMACS CNF instances and model files, grounded on
// the teacher's parsers/parsers.go, retargeted from internal/sat's
// Literal/SATSolver pair to fdsolve's boolean finite-domain variables. Uses
// the external github.com/rhartert/dimacs line-oriented reader instead of
// the teacher's hand-rolled internal/dimacs scanner, the same dependency
// the teacher's own parsers package had already adopted for this concern.
package parsers

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/rhartert/dimacs"

	"github.com/solverforge/fdcdcl/internal/fd"
)

// CNFSolver is the narrow capability LoadDIMACS needs: a source of fresh
// boolean variables, their true/false literals, and a place to register
// clauses. *fdsolve.Solver satisfies this directly.
type CNFSolver interface {
	MakeBoolVariable() fd.VariableID
	True(v fd.VariableID) fd.Literal
	False(v fd.VariableID) fd.Literal
	AddClause([]fd.Literal) error
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// LoadDIMACS parses the DIMACS CNF file at filename and loads its formula
// into solver, one fresh boolean variable per problem-line variable count
// and one clause per clause line.
func LoadDIMACS(filename string, gzipped bool, solver CNFSolver) error {
	r, err := reader(filename, gzipped)
	if err != nil {
		return fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	b := &builder{solver: solver}
	return dimacs.ReadBuilder(r, b)
}

// builder wraps a CNFSolver to implement dimacs.Builder.
type builder struct {
	solver  CNFSolver
	vars    []fd.VariableID
	problem bool
}

func (b *builder) Problem(problem string, nVars int, nClauses int) error {
	if problem != "cnf" {
		return fmt.Errorf("not a CNF problem")
	}
	b.problem = true
	b.vars = make([]fd.VariableID, nVars)
	for i := range b.vars {
		b.vars[i] = b.solver.MakeBoolVariable()
	}
	return nil
}

func (b *builder) Clause(tmpClause []int) error {
	if !b.problem {
		return fmt.Errorf("clause line before problem line")
	}
	clause := make([]fd.Literal, len(tmpClause))
	for i, l := range tmpClause {
		switch {
		case l < 0:
			clause[i] = b.solver.False(b.vars[-l-1])
		case l > 0:
			clause[i] = b.solver.True(b.vars[l-1])
		default:
			return fmt.Errorf("literal 0 inside a clause body")
		}
	}
	return b.solver.AddClause(clause)
}

func (b *builder) Comment(_ string) error {
	return nil // ignore comments
}

// ReadModels returns the list of models (if any) contained in filename, one
// []bool per clause line, index i true iff the line's i-th literal was
// positive.
func ReadModels(filename string) ([][]bool, error) {
	r, err := reader(filename, false)
	if err != nil {
		return nil, fmt.Errorf("error reading file %q: %s", filename, err)
	}
	defer r.Close()

	b := &modelBuilder{}
	if err := dimacs.ReadBuilder(r, b); err != nil {
		return nil, err
	}
	return b.models, nil
}

type modelBuilder struct {
	models [][]bool
}

func (b *modelBuilder) Problem(problem string, nVars int, nClauses int) error {
	return fmt.Errorf("model files should not have problem lines")
}

func (b *modelBuilder) Comment(_ string) error {
	return nil // ignore comments
}

func (b *modelBuilder) Clause(tmpClause []int) error {
	model := make([]bool, len(tmpClause))
	for i, l := range tmpClause {
		model[i] = l > 0
	}
	b.models = append(b.models, model)
	return nil
}
