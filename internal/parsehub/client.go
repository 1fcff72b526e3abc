package parsehub

import (
	"context"
	"covidstats/internal/components/assert"
	"covidstats/internal/components/telemetry"
	"covidstats/lib/restyutil"
	libtelemetry "covidstats/lib/telemetry"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch_snapshot = "client.fetch-snapshot"
	report_client_request_update = "client.request-update"
	report_client_poll           = "client.poll"
)

const (
	DefaultBaseUrl      = "https://www.parsehub.com"
	DefaultPollInterval = time.Second * 5
	DefaultPollDelay    = time.Millisecond * 100
	DefaultTimeout      = time.Second * 30
)

const (
	dataEndpoint = "/api/v2/projects/{project_token}/last_ready_run/data"
	runEndpoint  = "/api/v2/projects/{project_token}/run"
)

var tracer = libtelemetry.Tracer("covidstats.internal.parsehub")

type Options struct {
	ApiKey       string
	ProjectToken string
	// defaults to DefaultBaseUrl
	BaseUrl string
	// time between two fetches while polling, defaults to DefaultPollInterval
	PollInterval time.Duration
	// time before the first fetch while polling, defaults to DefaultPollDelay
	PollDelay time.Duration
	// 0 means poll until new data arrives or the poll is cancelled
	MaxPollAttempts int
	// defaults to DefaultTimeout
	Timeout time.Duration
	// console notices are written here, defaults to os.Stdout
	Out io.Writer
	// if set, full http messages are dumped here when debug logging is on
	InstrumentOutput restyutil.InstrumentOutput
}

func (o *Options) setDefaults() {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.PollDelay <= 0 {
		o.PollDelay = DefaultPollDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
}

// lockedWriter serializes writes from the poll goroutine and its caller.
type lockedWriter struct {
	mutex sync.Mutex
	w     io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.w.Write(p)
}

// Client keeps the latest snapshot of a parsehub project in memory.
//
// The current snapshot is swapped atomically, it has a single writer (the
// constructor or an update poll) and any number of concurrent readers.
type Client struct {
	http *resty.Client
	opts Options
	out  io.Writer
	tel  telemetry.API

	current atomic.Pointer[Snapshot]
}

// NewClient creates a client and blocks until the initial snapshot has
// been fetched.
func NewClient(ctx context.Context, opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	opts.setDefaults()

	tel = telemetry.NewScopedAPI("parsehub", tel)
	if opts.ApiKey == "" || opts.ProjectToken == "" {
		tel.ReportWarning("client.new", "api key or project token is empty")
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetQueryParams(map[string]string{
		"api_key": opts.ApiKey,
		"format":  "json",
	})
	httpClient.SetPathParam("project_token", opts.ProjectToken)

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.InstrumentOutput)

	c := &Client{
		http: httpClient,
		opts: opts,
		out:  &lockedWriter{w: opts.Out},
		tel:  tel,
	}

	snapshot, err := c.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	c.current.Store(snapshot)

	return c, nil
}

// FetchSnapshot fetches the data of the last ready run, it does not
// replace the current snapshot.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(dataEndpoint)
	if err != nil {
		c.tel.ReportBroken(
			report_client_fetch_snapshot,
			fmt.Errorf("fetch: %w", err),
		)
		return nil, fmt.Errorf("parsehub: fetch snapshot: %w", err)
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportBroken(report_client_fetch_snapshot, err)
		return nil, fmt.Errorf("parsehub: fetch snapshot: %w", err)
	}

	snapshot, err := DecodeSnapshot(res.Body())
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_snapshot, err)
		return nil, fmt.Errorf("parsehub: %w", err)
	}
	return snapshot, nil
}

// Snapshot returns the current snapshot.
func (c *Client) Snapshot() *Snapshot {
	return c.current.Load()
}

// QueryByField runs Snapshot.QueryByField against the current snapshot.
func (c *Client) QueryByField(key, value string, worldwide bool) []Record {
	return c.Snapshot().QueryByField(key, value, worldwide)
}

// PrintCountryReport runs Snapshot.PrintCountryReport against the current snapshot.
func (c *Client) PrintCountryReport(w io.Writer, country string) []Record {
	return c.Snapshot().PrintCountryReport(w, country)
}

// PrintCountryReports runs Snapshot.PrintCountryReports against the current snapshot.
func (c *Client) PrintCountryReports(w io.Writer, countries []string) []Record {
	return c.Snapshot().PrintCountryReports(w, countries)
}
