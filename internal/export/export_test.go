package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/j-veylop/doublers-tui/internal/models"
)

func ptr(v float64) *float64 { return &v }

func samplePicks() map[int][]models.Pick {
	return map[int][]models.Pick{
		6: {
			{Horizon: 6, Rank: 1, Symbol: "TCS", ProbEst: 1, Return: 0.25, Volatility: 0.3,
				AvgVolume: 120000, Score: 0.12, StopLoss: ptr(3500.5), TargetPrice: ptr(10800),
				Reason: "ret=25.00%, vol=0.30, avgVol=120000"},
			{Horizon: 6, Rank: 2, Symbol: "INFY", ProbEst: 0, Return: -0.05, Volatility: 0.2,
				AvgVolume: 90000, Score: -0.1, Reason: "ret=-5.00%, vol=0.20, avgVol=90000"},
		},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "top_stocks_1700000000.xlsx", FileName(time.Unix(1700000000, 0)))
}

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", FileName(time.Now()))
	horizons := []int{6, 12}

	require.NoError(t, WriteWorkbook(path, horizons, samplePicks()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"6m", "12m"}, f.GetSheetList())

	header, err := f.GetRows("6m")
	require.NoError(t, err)
	assert.Equal(t, Columns, header[0])

	empty, err := f.GetRows("12m")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"symbol"}}, empty)
	require.NoError(t, f.Close())

	wb, err := ReadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 12}, wb.Horizons)
	assert.Empty(t, wb.Picks[12])
	require.Len(t, wb.Picks[6], 2)

	first := wb.Picks[6][0]
	assert.Equal(t, "TCS", first.Symbol)
	assert.Equal(t, 1, first.Rank)
	assert.InDelta(t, 0.25, first.Return, 1e-12)
	assert.InDelta(t, 120000, first.AvgVolume, 1e-9)
	require.NotNil(t, first.StopLoss)
	assert.InDelta(t, 3500.5, *first.StopLoss, 1e-9)
	assert.Equal(t, "ret=25.00%, vol=0.30, avgVol=120000", first.Reason)

	second := wb.Picks[6][1]
	assert.Nil(t, second.StopLoss)
	assert.Nil(t, second.TargetPrice)
	assert.Equal(t, 2, second.Rank)
}

func TestWriteWorkbook_NoHorizons(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"), nil, nil)
	assert.Error(t, err)
}

func TestReadWorkbook_Missing(t *testing.T) {
	_, err := ReadWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}

func TestReadWorkbook_IgnoresOtherSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.xlsx")
	f := excelize.NewFile()
	_, err := f.NewSheet("notes")
	require.NoError(t, err)
	_, err = f.NewSheet("18m")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("18m", "A1", &[]any{"symbol", "prob_est"}))
	require.NoError(t, f.SetSheetRow("18m", "A2", &[]any{"LT", 0.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := ReadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, []int{18}, wb.Horizons)
	require.Len(t, wb.Picks[18], 1)
	assert.Equal(t, 0.5, wb.Picks[18][0].ProbEst)
}

func TestParseHorizon(t *testing.T) {
	h, ok := parseHorizon("48m")
	assert.True(t, ok)
	assert.Equal(t, 48, h)

	for _, name := range []string{"Sheet1", "m", "0m", "-6m", "6M"} {
		_, ok := parseHorizon(name)
		assert.False(t, ok, name)
	}
}

func TestS3Uploader_Upload(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	var gotMethod, gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "top_stocks_1.xlsx")
	require.NoError(t, os.WriteFile(local, []byte("xlsx-bytes"), 0o600))

	u, err := NewS3Uploader(context.Background(), "bucket", "/runs/", "us-east-1", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "runs/top_stocks_1.xlsx", u.Key(local))

	uri, err := u.Upload(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/runs/top_stocks_1.xlsx", uri)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/bucket/runs/top_stocks_1.xlsx", gotPath)
	assert.Equal(t, ContentType, gotType)
	assert.Contains(t, string(gotBody), "xlsx-bytes")
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), "", "", "us-east-1", "")
	assert.Error(t, err)
}
