package util

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CSVSimpleTest struct {
	Name   string  `csv:"name,required"`
	Age    int     `csv:"age"`
	Height float32 `csv:"height"`
	Gender bool    `csv:"gender"`
}

func TestCSVSimple(t *testing.T) {
	rows, err := ReadCSVFromFile[CSVSimpleTest]("./testdata/simple.csv", ';')
	require.NoError(t, err)

	assert.Equal(t, []CSVSimpleTest{
		{Name: "John", Age: 30, Height: 170, Gender: false},
		{Name: "Jane", Age: 25, Height: 160.5, Gender: true},
		{Name: "Joe", Age: 35, Height: 0, Gender: true},
	}, rows)
}

func TestCSVError(t *testing.T) {
	_, err := ReadCSVFromFile[CSVSimpleTest]("./testdata/error.csv", ';')
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "age" in record 2`)
}

func TestCSVMissingRequiredColumn(t *testing.T) {
	_, err := ReadCSV[CSVSimpleTest](strings.NewReader("age,height\n1,2\n"), ',')
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing csv column "name"`)
}

func TestCSVTable(t *testing.T) {
	table, err := ReadCSVTable(strings.NewReader("\ufeffid, x ,y\na,1,2\nb,3,4\n"), ',')
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "x", "y"}, table.Header)
	assert.Equal(t, 1, table.Column("x"))
	assert.Equal(t, -1, table.Column("z"))
	assert.Equal(t, [][]string{{"a", "1", "2"}, {"b", "3", "4"}}, table.Rows)
}

func TestYAMLRoundTrip(t *testing.T) {
	type doc struct {
		RunID string         `yaml:"run_id"`
		Count map[string]int `yaml:"count"`
	}
	file := filepath.Join(t.TempDir(), "report.yaml")

	require.NoError(t, WriteYAMLToFile(doc{RunID: "abc", Count: map[string]int{"cbd": 3}}, file))
	value, err := ReadYAMLFromFile[doc](file)
	require.NoError(t, err)
	assert.Equal(t, "abc", value.RunID)
	assert.Equal(t, 3, value.Count["cbd"])

	_, err = ReadYAMLFromFile[doc](filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "file not found")
}
