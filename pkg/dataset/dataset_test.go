package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dataset {
	ds := New("", []string{"axis_1", "axis_2"})
	ds.Append(0, 1, 10)
	ds.Append(0.5, 2, 20)
	ds.Append(1.5, 3, 30)
	return ds
}

func TestDefaults(t *testing.T) {
	ds := New("", nil)
	assert.Equal(t, "time_s", ds.TimeColumn)
	require.Len(t, ds.Channels, 8)
	assert.Equal(t, "axis_1", ds.Channels[0])
	assert.Equal(t, "axis_8", ds.Channels[7])
}

func TestColumnsAndTimes(t *testing.T) {
	ds := sample()
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []float64{0, 0.5, 1.5}, ds.Times())

	col, err := ds.Column("axis_2")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, col)

	_, err = ds.Column("axis_9")
	require.Error(t, err)
}

func TestMedianStepAndLoopPeriod(t *testing.T) {
	ds := sample()
	assert.Equal(t, 0.75, ds.MedianStep())
	assert.Equal(t, 2.25, ds.LoopPeriod())

	single := New("", []string{"a"})
	single.Append(3, 1)
	assert.Equal(t, 1.0, single.MedianStep())
	assert.Equal(t, 1.0, single.LoopPeriod())
	assert.Equal(t, 0.0, New("", nil).LoopPeriod())
}

func TestClone_IsDeep(t *testing.T) {
	ds := sample()
	cp := ds.Clone()
	cp.Readings[0].Values[0] = 99
	cp.Channels[0] = "renamed"
	assert.Equal(t, 1.0, ds.Readings[0].Values[0])
	assert.Equal(t, "axis_1", ds.Channels[0])

	sl := ds.Slice(1, 3)
	require.Equal(t, 2, sl.Len())
	sl.Readings[0].Values[0] = 99
	assert.Equal(t, 2.0, ds.Readings[1].Values[0])
}

func TestValidate(t *testing.T) {
	ds := sample()
	require.NoError(t, ds.Validate())
	ds.Append(2, 1)
	require.Error(t, ds.Validate())
	require.Error(t, (&Dataset{}).Validate())
}

func TestRecords(t *testing.T) {
	ds := sample()
	records := ds.ToRecords()
	require.Len(t, records, 3)
	assert.Equal(t, map[string]interface{}{"time_s": 0.5, "axis_1": 2.0, "axis_2": 20.0}, records[1])

	back, err := FromRecords(records, "time_s", ds.Channels)
	require.NoError(t, err)
	assert.Equal(t, ds.Readings, back.Readings)

	// values decoded from JSON or text arrive with other types
	r, err := ReadingFromRecord(map[string]interface{}{"time_s": "3", "axis_1": 4, "axis_2": int64(5)}, "time_s", ds.Channels)
	require.NoError(t, err)
	assert.Equal(t, Reading{Time: 3, Values: []float64{4, 5}}, r)

	_, err = ReadingFromRecord(map[string]interface{}{"time_s": 1.0, "axis_1": 4.0}, "time_s", ds.Channels)
	require.ErrorContains(t, err, "axis_2")
	_, err = ReadingFromRecord(map[string]interface{}{"axis_1": 4.0, "axis_2": 1.0}, "time_s", ds.Channels)
	require.ErrorContains(t, err, "time_s")
	_, err = FromRecords([]map[string]interface{}{{"time_s": 1.0, "axis_1": "x", "axis_2": 1.0}}, "time_s", ds.Channels)
	require.ErrorContains(t, err, "record 0")
}

func TestReadCSV(t *testing.T) {
	in := `id,time_s,axis_1,axis_2
1,0,1.5,2
2,0.1, 1.75,
3,0.2,2,3e1
`
	ds, err := ReadCSV(strings.NewReader(in), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"axis_1", "axis_2"}, ds.Channels)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, 0.1, ds.Readings[1].Time)
	assert.Equal(t, 1.75, ds.Readings[1].Values[0])
	assert.True(t, math.IsNaN(ds.Readings[1].Values[1]))
	assert.Equal(t, Reading{Time: 0.2, Values: []float64{2, 30}}, ds.Readings[2])

	ds, err = ReadCSV(strings.NewReader(in), "time_s", []string{"axis_2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"axis_2"}, ds.Channels)
	assert.Equal(t, []float64{2}, ds.Readings[0].Values)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "", nil)
	require.Error(t, err)

	_, err = ReadCSV(strings.NewReader("t,axis_1\n0,1\n"), "", nil)
	require.ErrorContains(t, err, "time_s")

	_, err = ReadCSV(strings.NewReader("time_s,axis_1\n0,1\n"), "", []string{"axis_2"})
	require.ErrorContains(t, err, "axis_2")

	_, err = ReadCSV(strings.NewReader("time_s,axis_1\n0,1\n1,abc\n"), "", nil)
	require.ErrorContains(t, err, "line 3")
	require.ErrorContains(t, err, "axis_1")

	_, err = ReadCSV(strings.NewReader("time_s,axis_1\n0,1\n,2\n"), "", nil)
	require.ErrorContains(t, err, "line 3")
	require.ErrorContains(t, err, "missing time value")
}

func TestWriteCSV_MissingValuesRoundTrip(t *testing.T) {
	ds := New("", []string{"axis_1"})
	ds.Append(0, 1)
	ds.Append(1, math.NaN())
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "time_s,axis_1\n0,1\n1,\n", buf.String())

	back, err := ReadCSV(&buf, "", nil)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.True(t, math.IsNaN(back.Readings[1].Values[0]))
}

func TestDropNaN(t *testing.T) {
	assert.Equal(t, []float64{1, 3}, DropNaN([]float64{math.NaN(), 1, math.NaN(), 3}))
	assert.Empty(t, DropNaN([]float64{math.NaN()}))
}

func TestWriteCSV_ReadBack(t *testing.T) {
	ds := sample()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.True(t, strings.HasPrefix(buf.String(), "time_s,axis_1,axis_2\n"))

	back, err := ReadCSV(&buf, "", nil)
	require.NoError(t, err)
	assert.Equal(t, ds.Channels, back.Channels)
	assert.Equal(t, ds.Readings, back.Readings)
}

func TestCSVFiles(t *testing.T) {
	path := t.TempDir() + "/readings.csv"
	require.NoError(t, WriteCSVFile(path, sample()))
	back, err := ReadCSVFile(path, "time_s", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, back.Len())

	_, err = ReadCSVFile(t.TempDir()+"/missing.csv", "", nil)
	require.Error(t, err)
}
