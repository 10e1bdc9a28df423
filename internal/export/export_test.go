package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlab/doseplan/internal/dosereport"
)

func sampleRoutes() []dosereport.RouteDose {
	return []dosereport.RouteDose{
		{
			Route: "survey",
			Points: []dosereport.PointDose{
				{Index: 0, File: "run_0000/deposit.out", Dose: 1e-8},
				{Index: 1, File: "run_0001/deposit.out", Dose: 3e-8},
			},
			Total: 4e-8,
			Max:   3e-8,
			Mean:  2e-8,
		},
	}
}

func TestWriteJSON_Structure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRoutes()))

	var got ReportExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.NotEmpty(t, got.ExportedAt)
	require.Len(t, got.Routes, 1)
	assert.Equal(t, "survey", got.Routes[0].Route)
	assert.Len(t, got.Routes[0].Points, 2)
	assert.InDelta(t, 4e-8, got.Routes[0].Total, 1e-20)
}

func TestWriteCSV_OneRowPerWaypoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRoutes()))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3, "header plus one row per waypoint")
	assert.Equal(t, []string{"route", "index", "dose", "route_total", "route_max", "route_mean"}, records[0])
	assert.Equal(t, "survey", records[1][0])
	assert.Equal(t, "0", records[1][1])
	assert.Equal(t, "1.0000E-08", records[1][2])
	assert.Equal(t, "2.0000E-08", records[2][5], "aggregates repeat on every row")
}

func TestWriteCSV_EmptyReportStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "route,index,dose,route_total,route_max,route_mean\n", buf.String())
}
