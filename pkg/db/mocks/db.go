package mocks

import (
	"context"
	"errors"

	kdb "github.com/atldata/igs/pkg/db"
)

// CallLog records the arguments of each call to a mocked method.
type CallLog[T any] []T

func (c CallLog[T]) Times() int {
	return len(c)
}

type TractInterface struct {
	Impl struct {
		Count        func(context.Context, kdb.TractFilter) (int, error)
		Find         func(context.Context, kdb.TractFilter) ([]kdb.Tract, error)
		GetByFips    func(context.Context, string, *int) ([]kdb.Tract, error)
		States       func(context.Context) ([]kdb.StateCount, error)
		MetricValues func(context.Context, string, kdb.TractFilter) ([]kdb.MetricValue, error)
		MetricPairs  func(context.Context, string, string, kdb.TractFilter) ([]kdb.MetricPair, error)
		LatestYear   func(context.Context) (int, error)
	}
	Calls struct {
		Count     CallLog[kdb.TractFilter]
		Find      CallLog[kdb.TractFilter]
		GetByFips CallLog[struct {
			Fips string
			Year *int
		}]
		States       CallLog[struct{}]
		MetricValues CallLog[struct {
			Metric string
			Filter kdb.TractFilter
		}]
		MetricPairs CallLog[struct {
			MetricX string
			MetricY string
			Filter  kdb.TractFilter
		}]
		LatestYear CallLog[struct{}]
	}
}

func NewTractInterface() *TractInterface {
	return &TractInterface{}
}

var _ kdb.TractInterface = &TractInterface{}

func (m *TractInterface) Count(ctx context.Context, filter kdb.TractFilter) (int, error) {
	m.Calls.Count = append(m.Calls.Count, filter)
	if m.Impl.Count != nil {
		return m.Impl.Count(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) Find(ctx context.Context, filter kdb.TractFilter) ([]kdb.Tract, error) {
	m.Calls.Find = append(m.Calls.Find, filter)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) GetByFips(ctx context.Context, fips string, year *int) ([]kdb.Tract, error) {
	m.Calls.GetByFips = append(m.Calls.GetByFips, struct {
		Fips string
		Year *int
	}{Fips: fips, Year: year})
	if m.Impl.GetByFips != nil {
		return m.Impl.GetByFips(ctx, fips, year)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) States(ctx context.Context) ([]kdb.StateCount, error) {
	m.Calls.States = append(m.Calls.States, struct{}{})
	if m.Impl.States != nil {
		return m.Impl.States(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) MetricValues(ctx context.Context, metric string, filter kdb.TractFilter) ([]kdb.MetricValue, error) {
	m.Calls.MetricValues = append(m.Calls.MetricValues, struct {
		Metric string
		Filter kdb.TractFilter
	}{Metric: metric, Filter: filter})
	if m.Impl.MetricValues != nil {
		return m.Impl.MetricValues(ctx, metric, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) MetricPairs(ctx context.Context, metricX, metricY string, filter kdb.TractFilter) ([]kdb.MetricPair, error) {
	m.Calls.MetricPairs = append(m.Calls.MetricPairs, struct {
		MetricX string
		MetricY string
		Filter  kdb.TractFilter
	}{MetricX: metricX, MetricY: metricY, Filter: filter})
	if m.Impl.MetricPairs != nil {
		return m.Impl.MetricPairs(ctx, metricX, metricY, filter)
	}
	panic(errors.New("it should not be called"))
}

func (m *TractInterface) LatestYear(ctx context.Context) (int, error) {
	m.Calls.LatestYear = append(m.Calls.LatestYear, struct{}{})
	if m.Impl.LatestYear != nil {
		return m.Impl.LatestYear(ctx)
	}
	panic(errors.New("it should not be called"))
}

type AdminInterface struct {
	Impl struct {
		Init     func(context.Context) error
		Truncate func(context.Context) error
		Insert   func(context.Context, []kdb.Tract) (int64, error)
		Snapshot func(context.Context, string) error
		Restore  func(context.Context, string) error
	}
	Calls struct {
		Init     CallLog[struct{}]
		Truncate CallLog[struct{}]
		Insert   CallLog[[]kdb.Tract]
		Snapshot CallLog[struct{ DestPath string }]
		Restore  CallLog[struct{ SrcPath string }]
	}
}

func NewAdminInterface() *AdminInterface {
	return &AdminInterface{}
}

var _ kdb.AdminInterface = &AdminInterface{}

func (m *AdminInterface) Init(ctx context.Context) error {
	m.Calls.Init = append(m.Calls.Init, struct{}{})
	if m.Impl.Init != nil {
		return m.Impl.Init(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *AdminInterface) Truncate(ctx context.Context) error {
	m.Calls.Truncate = append(m.Calls.Truncate, struct{}{})
	if m.Impl.Truncate != nil {
		return m.Impl.Truncate(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (m *AdminInterface) Insert(ctx context.Context, tracts []kdb.Tract) (int64, error) {
	m.Calls.Insert = append(m.Calls.Insert, tracts)
	if m.Impl.Insert != nil {
		return m.Impl.Insert(ctx, tracts)
	}
	panic(errors.New("it should not be called"))
}

func (m *AdminInterface) Snapshot(ctx context.Context, destPath string) error {
	m.Calls.Snapshot = append(m.Calls.Snapshot, struct{ DestPath string }{DestPath: destPath})
	if m.Impl.Snapshot != nil {
		return m.Impl.Snapshot(ctx, destPath)
	}
	panic(errors.New("it should not be called"))
}

func (m *AdminInterface) Restore(ctx context.Context, srcPath string) error {
	m.Calls.Restore = append(m.Calls.Restore, struct{ SrcPath string }{SrcPath: srcPath})
	if m.Impl.Restore != nil {
		return m.Impl.Restore(ctx, srcPath)
	}
	panic(errors.New("it should not be called"))
}

// Database bundles the mocks as a kdb.IGSDatabase.
type Database struct {
	TractsMock *TractInterface
	AdminMock  *AdminInterface
}

func NewDatabase() *Database {
	return &Database{
		TractsMock: NewTractInterface(),
		AdminMock:  NewAdminInterface(),
	}
}

var _ kdb.IGSDatabase = &Database{}

func (m *Database) Tracts() kdb.TractInterface {
	return m.TractsMock
}

func (m *Database) Admin() kdb.AdminInterface {
	return m.AdminMock
}

func (m *Database) Close() error {
	return nil
}
