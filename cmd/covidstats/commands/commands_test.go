package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const firstBody = `{
	"Summary": [{"total_cases": "4,801,253", "total_deaths": "316,671", "total_recoveries": "1,859,705"}],
	"countries": [
		{"name": "USA", "total_cases": "1,527,664", "total_deaths": "90,978"},
		{"name": "Germany", "total_cases": "177,289", "total_deaths": "8,123", "population": "83,759,019"}
	]
}`

const secondBody = `{
	"Summary": [{"total_cases": "4,900,000", "total_deaths": "320,000", "total_recoveries": "1,900,000"}],
	"countries": [
		{"name": "USA", "total_cases": "1,550,000", "total_deaths": "92,000"},
		{"name": "Germany", "total_cases": "178,000", "total_deaths": "8,200", "population": "83,759,019"}
	]
}`

type fakeParsehub struct {
	mutex     sync.Mutex
	bodies    []string
	fetches   int
	runStatus int
}

func (f *fakeParsehub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if r.URL.Query().Get("api_key") != "test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/api/v2/projects/test-token/last_ready_run/data":
		idx := min(f.fetches, len(f.bodies)-1)
		f.fetches++
		w.Write([]byte(f.bodies[idx]))
	case "/api/v2/projects/test-token/run":
		w.WriteHeader(f.runStatus)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// setup points the cli at a fake parsehub and runs it from an empty
// directory holding `config` as covidstats.json5 (if not empty).
func setup(t *testing.T, fake *fakeParsehub, config string) {
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	t.Setenv("API_KEY", "test-key")
	t.Setenv("PROJECT_TOKEN", "test-token")
	t.Setenv("PARSEHUB_BASE_URL", server.URL)

	dir := t.TempDir()
	if config != "" {
		err := os.WriteFile(filepath.Join(dir, "covidstats.json5"), []byte(config), 0600)
		require.NoError(t, err)
	}
	chdir(t, dir)
}

func chdir(t *testing.T, dir string) {
	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(previous)
	})
}

func execute(t *testing.T, stdin string, args ...string) string {
	*debug = false
	*worldwide = false
	*update = false
	*asTable = false
	*updateMaxAttempts = 0

	// a nil slice makes cobra fall back to os.Args
	if args == nil {
		args = []string{}
	}

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err := run(ctx)
	require.NoError(t, err)
	return out.String()
}

func TestMissingArgs(t *testing.T) {
	out := execute(t, "", "name")
	require.Equal(t, "Invalid input: e.g. covidstats <key> <value>\n", out)

	out = execute(t, "")
	require.Equal(t, "Invalid input: e.g. covidstats <key> <value>\n", out)
}

func TestQueryLoop(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "y\ntotal_cases\n1000000\nn\n", "name", "ger")

	expected := `-------------------------
Germany
-------------------------
Total Cases: 177,289
Total Deaths: 8,123
Population: 83,759,019

Search again (y/n): Search key: Search value: -------------------------
USA
-------------------------
Total Cases: 1,527,664
Total Deaths: 90,978

Search again (y/n): 
`
	require.Equal(t, expected, out)
}

func TestQueryEndsOnEOF(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "", "total_deaths", "10000")
	require.Contains(t, out, "\nUSA\n")
	require.NotContains(t, out, "Germany")
	require.True(t, strings.HasSuffix(out, "Search again (y/n): \n"))
}

func TestQueryNotFound(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "n\n", "name", "germny")
	require.Equal(t, "Data not found for []\nDid you mean: Germany?\nSearch again (y/n): \n", out)
}

func TestQueryTable(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "n\n", "--table", "total_cases", "0")
	require.Contains(t, out, "TOTAL CASES")
	require.Contains(t, out, "1,527,664")
	require.Contains(t, out, "177,289")
	require.NotContains(t, out, "-------------------------")
}

func TestQueryWorldwide(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "n\n", "--worldwide", "--table", "total_cases", "4000000")
	require.Contains(t, out, "4,801,253")
}

func TestQueryWorldwideReport(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "n\n", "--worldwide", "total_cases", "4000000")
	expected := `-------------------------
Worldwide
-------------------------
Total Cases: 4,801,253
Total Deaths: 316,671
Recoveries: 1,859,705

Search again (y/n): 
`
	require.Equal(t, expected, out)
}

func TestQueryWorldwideNotFound(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "n\n", "--worldwide", "total_cases", "5000000")
	require.Equal(t, "No worldwide data matches total_cases 5000000\nSearch again (y/n): \n", out)
}

func TestSummary(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	out := execute(t, "", "summary")
	require.Contains(t, out, "TOTAL CASES")
	require.Contains(t, out, "4,801,253")
	require.Contains(t, out, "1,859,705")
}

func TestUpdateNotStarted(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}, runStatus: http.StatusBadRequest}, "")

	out := execute(t, "", "update")
	require.Equal(t, "Fetching new updates of Covid-19 from Worldometer.com ...\nThe update was not started.\n", out)
}

func TestUpdateNewData(t *testing.T) {
	fake := &fakeParsehub{
		bodies:    []string{firstBody, firstBody, secondBody},
		runStatus: http.StatusOK,
	}
	setup(t, fake, `{ poll_interval: "5ms", poll_delay: "1ms" }`)

	out := execute(t, "", "update")
	require.Contains(t, out, "New data for Covid-19 from Worldometer is now available.")
	require.Contains(t, out, "4,900,000")
}

func TestUpdateExhausted(t *testing.T) {
	fake := &fakeParsehub{bodies: []string{firstBody}, runStatus: http.StatusOK}
	setup(t, fake, `{ poll_interval: "5ms", poll_delay: "1ms" }`)

	out := execute(t, "", "update", "--max-attempts", "3")
	require.Contains(t, out, "No new data after 3 attempts.")
	require.NotContains(t, out, "New data")
}

func TestUpdateTwice(t *testing.T) {
	fake := &fakeParsehub{bodies: []string{firstBody}, runStatus: http.StatusOK}
	setup(t, fake, `{ poll_interval: "5ms", poll_delay: "1ms" }`)

	for i := 0; i < 2; i++ {
		out := execute(t, "", "update", "--max-attempts", "2")
		require.Contains(t, out, "No new data after 2 attempts.")
	}
}

func TestSummaryTwice(t *testing.T) {
	setup(t, &fakeParsehub{bodies: []string{firstBody}}, "")

	for i := 0; i < 2; i++ {
		out := execute(t, "", "summary")
		require.Contains(t, out, "4,801,253")
	}
}

func TestLoadOptions(t *testing.T) {
	setup(t, &fakeParsehub{}, `{
		base_url: "https://example.com",
		poll_interval: "2s",
		max_poll_attempts: 10,
		timeout: "1m",
	}`)
	t.Setenv("PARSEHUB_BASE_URL", "")
	t.Setenv("API_KEY", "")
	os.Unsetenv("API_KEY")
	t.Setenv("ParseHub_API_KEY", "legacy-key")

	opts, err := loadOptions()
	require.NoError(t, err)
	require.Equal(t, "https://example.com", opts.BaseUrl)
	require.Equal(t, "legacy-key", opts.ApiKey)
	require.Equal(t, "test-token", opts.ProjectToken)
	require.Equal(t, time.Second*2, opts.PollInterval)
	require.Equal(t, time.Duration(0), opts.PollDelay)
	require.Equal(t, time.Minute, opts.Timeout)
	require.Equal(t, 10, opts.MaxPollAttempts)
}

func TestLoadOptionsInvalidDuration(t *testing.T) {
	setup(t, &fakeParsehub{}, `{ poll_interval: "often" }`)

	_, err := loadOptions()
	require.ErrorContains(t, err, "poll_interval")
}
