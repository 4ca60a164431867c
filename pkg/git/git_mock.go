package git

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRunner is a Runner whose git invocations are scripted with expectations.
type MockRunner struct {
	mock.Mock
}

type RunArgs struct {
	Ctx         context.Context
	CtxAnything bool
	Dir         string
	DirAnything bool
	Args        []string
}

type RunReturns struct {
	Output []byte
	Err    error
}

type RunExpectation struct {
	Args    RunArgs
	Returns RunReturns
}

func (_m *MockRunner) ApplyRunExpectation(e RunExpectation) {
	var args []interface{}
	if e.Args.CtxAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Ctx)
	}
	if e.Args.DirAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Dir)
	}
	args = append(args, e.Args.Args)
	_m.On("Run", args...).Return(e.Returns.Output, e.Returns.Err)
}

func (_m *MockRunner) ApplyRunExpectations(expectations []RunExpectation) {
	for _, e := range expectations {
		_m.ApplyRunExpectation(e)
	}
}

// Run provides a mock function with given fields: ctx, dir, args
func (_m *MockRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ret := _m.Called(ctx, dir, args)

	var r0 []byte
	if rf, ok := ret.Get(0).(func(context.Context, string, ...string) []byte); ok {
		r0 = rf(ctx, dir, args...)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, ...string) error); ok {
		r1 = rf(ctx, dir, args...)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
