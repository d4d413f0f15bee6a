package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/atlas-desktop/tradestats/internal/report"
	"github.com/atlas-desktop/tradestats/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const sampleCSV = `date,symbol,netPnl,grossPnl,charges,type
2024-01-04,TCS,60,65,5,Intraday
2024-01-03,INFY,-40,-35,5,Delivery
2024-01-02,HDFC,-30,-25,5,Intraday
2024-01-01,RELIANCE,100,105,5,Delivery
`

func sampleReport(t *testing.T) *types.Report {
	t.Helper()
	raws, err := readTradeFile(nil, writeSample(t))
	require.NoError(t, err)
	return report.NewService(zap.NewNop(), report.Config{}).Compute(context.Background(), raws, 0)
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))
	return path
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]outputFormat{"table": formatTable, "JSON": formatJSON, " yml ": formatYAML} {
		got, err := parseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseOutputFormat("xml")
	assert.Error(t, err)
}

func TestRenderReport_JSONOmitsSeriesUnlessAsked(t *testing.T) {
	rep := sampleReport(t)

	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, formatJSON, rep, false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Nil(t, decoded["daily"])
	metrics := decoded["metrics"].(map[string]any)
	assert.Equal(t, 90.0, metrics["totalNetPnL"])
	assert.Equal(t, 2.29, metrics["profitFactor"])
	assert.Len(t, rep.Daily, 4, "the report itself is not modified")

	buf.Reset()
	require.NoError(t, renderReport(&buf, formatJSON, rep, true))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded["daily"], 4)
}

func TestRenderReport_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, formatYAML, sampleReport(t), false))

	var decoded struct {
		Metrics types.AdvancedMetrics `yaml:"metrics"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 90.0, decoded.Metrics.TotalNetPnL)
	assert.Equal(t, 2, decoded.Metrics.LongestLossStreak)
	assert.Contains(t, buf.String(), "maxDrawdown: 70")
}

func TestRenderReport_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderReport(&buf, formatTable, sampleReport(t), true))

	out := buf.String()
	assert.Contains(t, out, "90.00")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "2.29")
	assert.Contains(t, out, "2L")
	assert.Contains(t, out, "2024-01-01 .. 2024-01-04")
	assert.Contains(t, out, "2024-01-03", "daily rows are rendered")
}

func TestRenderMetricsTable_NoDownside(t *testing.T) {
	var buf bytes.Buffer
	renderMetricsTable(&buf, &types.AdvancedMetrics{ProfitFactor: analytics.NoDownside})

	assert.Contains(t, buf.String(), "∞")
}

func TestComputeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"compute",
		"--file", writeSample(t),
		"--format", "json",
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--log.level", "error",
	})
	require.NoError(t, rootCmd.Execute())

	var rep types.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	require.NotNil(t, rep.Metrics)
	assert.Equal(t, 4, rep.Metrics.TotalTrades)
	assert.Equal(t, 70.0, rep.Metrics.MaxDrawdown)
}

func TestJournalCommands(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append(args,
			"--journal.dataDir", dir,
			"--env-file", filepath.Join(dir, "missing.env"),
			"--log.level", "error",
		))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	assert.Contains(t, run("journal", "import", "main", writeSample(t), "--format", "table"), `Imported 4 trades into "main"`)

	var listed struct {
		Journals []string `json:"journals"`
	}
	require.NoError(t, json.Unmarshal([]byte(run("journal", "list", "--format", "json")), &listed))
	assert.Equal(t, []string{"main"}, listed.Journals)

	var rep types.Report
	require.NoError(t, json.Unmarshal([]byte(run("journal", "show", "main", "--format", "json")), &rep))
	assert.Equal(t, "main", rep.Journal)
	assert.Equal(t, 90.0, rep.Metrics.TotalNetPnL)
}
