package synthetic

import (
	"errors"
	"math"
	"testing"

	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func training() *dataset.Dataset {
	ds := dataset.New("", []string{"a", "flat"})
	ds.Append(3, 1, 7)
	ds.Append(3.5, 3, 7)
	ds.Append(4, 1, 7)
	ds.Append(5, 3, 7)
	return ds
}

func TestGenerate(t *testing.T) {
	out, err := Generate(training(), Options{Rows: 20000, Seed: 7})
	require.NoError(t, err)
	require.Equal(t, 20000, out.Len())
	assert.Equal(t, []string{"a", "flat"}, out.Channels)
	assert.Equal(t, []float64{3, 3.5, 4, 4.5}, out.Times()[:4])

	a, _ := out.Column("a")
	mean, std := stat.PopMeanStdDev(a, nil)
	assert.InDelta(t, 2, mean, 0.05)
	assert.InDelta(t, 1, std, 0.05)

	flat, _ := out.Column("flat")
	for _, v := range flat {
		assert.InDelta(t, 7, v, 1e-4)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(training(), Options{Rows: 50, Seed: 42})
	require.NoError(t, err)
	second, err := Generate(training(), Options{Rows: 50, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, first.Readings, second.Readings)

	other, err := Generate(training(), Options{Rows: 50, Seed: 43})
	require.NoError(t, err)
	assert.NotEqual(t, first.Readings, other.Readings)
}

func TestGenerate_Defaults(t *testing.T) {
	single := dataset.New("", []string{"a"})
	single.Append(10, 1)
	out, err := Generate(single, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3000, out.Len())
	assert.Equal(t, 11.0, out.Readings[1].Time)

	_, err = Generate(dataset.New("", []string{"a"}), Options{})
	var insufficient *model.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
}

func TestGenerate_SkipsMissingTrainingValues(t *testing.T) {
	train := dataset.New("", []string{"a"})
	train.Append(0, 1)
	train.Append(1, math.NaN())
	train.Append(2, 1)
	out, err := Generate(train, Options{Rows: 10, Seed: 1})
	require.NoError(t, err)
	a, _ := out.Column("a")
	for _, v := range a {
		assert.InDelta(t, 1, v, 1e-4)
	}

	empty := dataset.New("", []string{"a"})
	empty.Append(0, math.NaN())
	_, err = Generate(empty, Options{Rows: 10})
	var insufficient *model.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
}

func TestInjectAnomaly(t *testing.T) {
	ds := dataset.New("", []string{"a", "b"})
	for i := 0; i < 10; i++ {
		ds.Append(float64(i), 0, 0)
	}
	out, err := InjectAnomaly(ds, Anomaly{Channel: "b", Start: 2, Duration: 3, Bump: 1.5})
	require.NoError(t, err)
	b, _ := out.Column("b")
	assert.Equal(t, []float64{0, 0, 1.5, 1.5, 1.5, 1.5, 0, 0, 0, 0}, b)
	a, _ := out.Column("a")
	assert.Equal(t, make([]float64, 10), a)
	orig, _ := ds.Column("b")
	assert.Equal(t, make([]float64, 10), orig)

	_, err = InjectAnomaly(ds, Anomaly{Channel: "zz"})
	require.Error(t, err)
}

func TestDefaultAnomalies(t *testing.T) {
	ds := dataset.New("", nil)
	for i := 0; i < 3000; i++ {
		ds.Append(float64(i)/10, make([]float64, 8)...)
	}
	anomalies := DefaultAnomalies(ds)
	require.Len(t, anomalies, 2)
	assert.Equal(t, Anomaly{Channel: "axis_2", Start: 50, Duration: 20, Bump: 2}, anomalies[0])
	assert.Equal(t, Anomaly{Channel: "axis_5", Start: 120, Duration: 30, Bump: 4}, anomalies[1])

	assert.Empty(t, DefaultAnomalies(ds.Slice(0, 400)))
	assert.Len(t, DefaultAnomalies(ds.Slice(0, 1000)), 1)
}

func TestRemovePickPoints(t *testing.T) {
	ds := dataset.New("", []string{"a"})
	for i := 0; i < 100; i++ {
		v := 1.0
		if i == 50 {
			v = 100
		}
		ds.Append(float64(i), v)
	}
	out, err := RemovePickPoints(ds)
	require.NoError(t, err)
	a, _ := out.Column("a")
	for _, v := range a {
		assert.Equal(t, 1.0, v)
	}
	orig, _ := ds.Column("a")
	assert.Equal(t, 100.0, orig[50])

	empty, err := RemovePickPoints(dataset.New("", []string{"a"}))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestCenteredMean(t *testing.T) {
	assert.Equal(t, []float64{1.5, 2, 3, 3.5}, centeredMean([]float64{1, 2, 3, 4}, 3))
	assert.Equal(t, []float64{5}, centeredMean([]float64{5}, 3))
}

func TestMakeRobotVariant(t *testing.T) {
	ds := training()
	out, meta := MakeRobotVariant(ds, VariantOptions{ScaleMu: 2}, NewRand(1))
	assert.Equal(t, []float64{2, 2}, meta.Scales)
	assert.Equal(t, []float64{0, 0}, meta.Offsets)
	a, _ := out.Column("a")
	assert.Equal(t, []float64{2, 6, 2, 6}, a)
	assert.Equal(t, ds.Times(), out.Times())

	first, m1 := MakeRobotVariant(ds, RobotVariant1, NewRand(42))
	second, m2 := MakeRobotVariant(ds, RobotVariant1, NewRand(42))
	assert.Equal(t, first.Readings, second.Readings)
	assert.Equal(t, m1, m2)
	assert.Equal(t, 0.98, m1.ScaleMu)
	require.Len(t, m1.Scales, 2)
	assert.NotEqual(t, ds.Readings, first.Readings)
}
