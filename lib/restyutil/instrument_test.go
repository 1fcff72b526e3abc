package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	messages map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.messages[id] = contents
}

func TestRedactUrl(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{
			input:    "https://www.parsehub.com/api/v2/projects/abc/run?api_key=secret&format=json",
			expected: "https://www.parsehub.com/api/v2/projects/abc/run?api_key=%3Credacted%3E&format=json",
		},
		{
			input:    "https://www.parsehub.com/api/v2/projects/abc/run?format=json",
			expected: "https://www.parsehub.com/api/v2/projects/abc/run?format=json",
		},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, redactUrl(test.input))
	}
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, nil, out)

	res, err := client.R().
		SetQueryParam("api_key", "secret").
		Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())

	// dumps are only written when debug logging is enabled
	require.Empty(t, out.messages)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("1", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}
