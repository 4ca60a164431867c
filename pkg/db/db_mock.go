package db

import (
	"github.com/stretchr/testify/mock"
	bolt "go.etcd.io/bbolt"
)

type MockOperations struct {
	mock.Mock
}

type BatchUpdateReturns struct {
	Err error
}

// Functions cannot be compared, so the callback always matches.
type BatchUpdateExpectation struct {
	Returns BatchUpdateReturns
}

func (_m *MockOperations) ApplyBatchUpdateExpectation(e BatchUpdateExpectation) {
	_m.On("BatchUpdate", mock.Anything).Return(e.Returns.Err)
}

// BatchUpdate runs fn with a nil transaction unless an error is scripted.
func (_m *MockOperations) BatchUpdate(fn func(*bolt.Tx) error) error {
	ret := _m.Called(fn)
	if err := ret.Error(0); err != nil {
		return err
	}
	return fn(nil)
}

type PutAdvisoryArgs struct {
	Tx               *bolt.Tx
	TxAnything       bool
	Gem              string
	GemAnything      bool
	ID               string
	IDAnything       bool
	Advisory         interface{}
	AdvisoryAnything bool
}

type PutAdvisoryReturns struct {
	Err error
}

type PutAdvisoryExpectation struct {
	Args    PutAdvisoryArgs
	Returns PutAdvisoryReturns
}

func (_m *MockOperations) ApplyPutAdvisoryExpectation(e PutAdvisoryExpectation) {
	var args []interface{}
	if e.Args.TxAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Tx)
	}
	if e.Args.GemAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Gem)
	}
	if e.Args.IDAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.ID)
	}
	if e.Args.AdvisoryAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Advisory)
	}
	_m.On("PutAdvisory", args...).Return(e.Returns.Err)
}

func (_m *MockOperations) ApplyPutAdvisoryExpectations(expectations []PutAdvisoryExpectation) {
	for _, e := range expectations {
		_m.ApplyPutAdvisoryExpectation(e)
	}
}

func (_m *MockOperations) PutAdvisory(tx *bolt.Tx, gem, id string, adv interface{}) error {
	ret := _m.Called(tx, gem, id, adv)
	return ret.Error(0)
}

type SetMetadataArgs struct {
	Metadata         Metadata
	MetadataAnything bool
}

type SetMetadataReturns struct {
	Err error
}

type SetMetadataExpectation struct {
	Args    SetMetadataArgs
	Returns SetMetadataReturns
}

func (_m *MockOperations) ApplySetMetadataExpectation(e SetMetadataExpectation) {
	var args []interface{}
	if e.Args.MetadataAnything {
		args = append(args, mock.Anything)
	} else {
		args = append(args, e.Args.Metadata)
	}
	_m.On("SetMetadata", args...).Return(e.Returns.Err)
}

func (_m *MockOperations) SetMetadata(meta Metadata) error {
	ret := _m.Called(meta)
	return ret.Error(0)
}
