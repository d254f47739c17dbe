package common

import (
	"path/filepath"
	"runtime"

	"emperror.dev/errors"
	"github.com/lib/pq"
)

// ErrWithCaller annotates the error with the name of the calling function.
func ErrWithCaller(err error) error {
	pc := make([]uintptr, 1)
	runtime.Callers(2, pc)
	f := runtime.FuncForPC(pc[0])
	return errors.WithMessage(err, filepath.Base(f.Name()))
}

// ErrPQIsUniqueViolation reports whether the error is a postgres unique
// constraint violation, optionally restricted to the named constraints.
func ErrPQIsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}

	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}

	if len(constraints) == 0 {
		return true
	}

	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}

	return false
}
