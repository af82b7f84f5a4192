package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilatcli/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV(t *testing.T) {
	writer := NewCSVWriter()
	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		options  WriteOptions
		wantRows [][]string
	}{
		{
			name: "headers and records",
			file: "basic.csv",
			options: WriteOptions{
				Headers: []string{"exporter", "importer", "include"},
				Records: [][]string{
					{"NOR", "DEU", "include"},
					{"DEU", "NOR", "exclude"},
				},
			},
			wantRows: [][]string{
				{"exporter", "importer", "include"},
				{"NOR", "DEU", "include"},
				{"DEU", "NOR", "exclude"},
			},
		},
		{
			name: "records only",
			file: "noheader.csv",
			options: WriteOptions{
				Records: [][]string{{"a", "b"}},
			},
			wantRows: [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, writer.WriteCSV(path, tt.options))
			assert.Equal(t, tt.wantRows, readCSV(t, path))
		})
	}
}

func TestWriteCSV_CreatesDirectories(t *testing.T) {
	writer := NewCSVWriter()
	path := filepath.Join(t.TempDir(), "nested", "deep", "file.csv")

	require.NoError(t, writer.WriteSimpleCSV(path, []string{"h"}, [][]string{{"v"}}))
	assert.FileExists(t, path)
}

func TestWriteSimpleCSV_BOM(t *testing.T) {
	writer := NewCSVWriter()
	path := filepath.Join(t.TempDir(), "bom.csv")

	require.NoError(t, writer.WriteSimpleCSV(path, []string{"h"}, nil))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
}

func TestAppendToCSV(t *testing.T) {
	writer := NewCSVWriter()
	path := filepath.Join(t.TempDir(), "append.csv")

	require.NoError(t, writer.WriteSimpleCSV(path, []string{"h"}, [][]string{{"1"}}))
	require.NoError(t, writer.AppendToCSV(path, [][]string{{"2"}}))

	rows := readCSV(t, path)
	assert.Equal(t, [][]string{{"h"}, {"1"}, {"2"}}, rows)
}

func TestStreamWriter(t *testing.T) {
	writer := NewCSVWriter()
	path := filepath.Join(t.TempDir(), "stream.csv")

	sw, err := writer.CreateStreamWriter(path, []string{"technology", "value"})
	require.NoError(t, err)

	require.NoError(t, sw.WriteRecord([]string{"gas_exp_pipe", "1.5"}))
	require.NoError(t, sw.WriteRecord([]string{"oil_imp_ship", "2"}))
	require.NoError(t, sw.Close())

	rows := readCSV(t, path)
	assert.Len(t, rows, 3)
	assert.Equal(t, []string{"gas_exp_pipe", "1.5"}, rows[1])
}

func TestWriteTable_RoundTrip(t *testing.T) {
	writer := NewCSVWriter()
	path := filepath.Join(t.TempDir(), "table.csv")

	table := &domain.ParameterTable{
		Name:    "input",
		Kind:    domain.TableKindTrade,
		Columns: []string{ColNodeLoc, ColTechnology, ColYearVtg, ColYearAct, ColMode, ColValue, ColUnit},
		Rows: []domain.ParameterRow{
			{
				NodeLoc:    "NOR",
				Technology: "gas_exp_pipe_NOR_DEU",
				YearVtg:    domain.BroadcastAll(),
				YearAct:    domain.BroadcastAll(),
				Mode:       "M1",
				Value:      domain.Float64(1),
				Unit:       "GWa",
			},
			{
				NodeLoc:    "NOR",
				Technology: "gas_exp_pipe_NOR_FRA",
				YearVtg:    domain.FixedYear(2020),
				YearAct:    domain.FixedYear(2025),
				Mode:       "M1",
				Unit:       "GWa",
			},
		},
	}

	require.NoError(t, writer.WriteTable(path, table))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, table.Columns, rows[0])
	assert.Equal(t, []string{"NOR", "gas_exp_pipe_NOR_DEU", "broadcast", "broadcast", "M1", "1", "GWa"}, rows[1])
	assert.Equal(t, []string{"NOR", "gas_exp_pipe_NOR_FRA", "2020", "2025", "M1", "", "GWa"}, rows[2])

	// parse the rows back through SetCell
	var parsed domain.ParameterRow
	for i, col := range rows[0] {
		require.NoError(t, SetCell(&parsed, col, rows[1][i]))
	}
	assert.True(t, parsed.YearVtg.IsBroadcast())
	require.NotNil(t, parsed.Value)
	assert.Equal(t, 1.0, *parsed.Value)
}

func TestStreamTable_MatchesWriteTable(t *testing.T) {
	writer := NewCSVWriter()
	table := &domain.ParameterTable{
		Name:    "output",
		Kind:    domain.TableKindTrade,
		Columns: []string{ColNodeLoc, ColTechnology, ColYearVtg, ColYearAct, ColValue, ColUnit},
		Rows: []domain.ParameterRow{
			{
				NodeLoc:    "NOR",
				Technology: "gas_exp_NOR_DEU",
				YearVtg:    domain.FixedYear(2020),
				YearAct:    domain.FixedYear(2025),
				Value:      domain.Float64(1),
				Unit:       "GWa",
			},
		},
	}

	batchPath := filepath.Join(t.TempDir(), "batch.csv")
	streamPath := filepath.Join(t.TempDir(), "stream.csv")
	require.NoError(t, writer.WriteTable(batchPath, table))
	require.NoError(t, writer.StreamTable(streamPath, table))

	assert.Equal(t, readCSV(t, batchPath), readCSV(t, streamPath))
}

func TestSetCell_Errors(t *testing.T) {
	var row domain.ParameterRow
	assert.Error(t, SetCell(&row, ColValue, "not-a-number"))
	assert.Error(t, SetCell(&row, ColYearVtg, "someday"))
	assert.Error(t, SetCell(&row, "mystery", "x"))
}
