package commands

import (
	"bufio"
	"covidstats/internal/parsehub"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var worldwide *bool
var update *bool
var asTable *bool

func init() {
	worldwide = rootCmd.Flags().Bool("worldwide", false, "Query the worldwide summary instead of the countries.")
	update = rootCmd.Flags().Bool("update", false, "Ask parsehub to run the project again and swap in the new data once it is ready.")
	asTable = rootCmd.Flags().Bool("table", false, "Print the matched records as a table.")
}

// prompt writes `message` and reads a line, io.EOF is only returned when
// nothing could be read.
func prompt(in *bufio.Reader, out io.Writer, message string) (string, error) {
	fmt.Fprint(out, message)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func recordNames(records []parsehub.Record) []string {
	var names []string
	for _, r := range records {
		if name, ok := r.Field(parsehub.FieldName); ok {
			names = append(names, name)
		}
	}
	return names
}

func printMatches(out io.Writer, client *parsehub.Client, key, value string) {
	snapshot := client.Snapshot()
	found := snapshot.QueryByField(key, value, *worldwide)

	switch {
	case *asTable && len(found) > 0:
		parsehub.WriteTable(out, found)
	case *worldwide && len(found) > 0:
		parsehub.PrintWorldwideReport(out, found)
	case *worldwide:
		fmt.Fprintf(out, "No worldwide data matches %s %s\n", key, value)
	default:
		snapshot.PrintCountryReports(out, recordNames(found))
	}

	if len(found) == 0 && strings.ToLower(key) == parsehub.FieldName {
		suggestions := snapshot.SuggestNames(value, 3)
		if len(suggestions) > 0 {
			fmt.Fprintf(out, "Did you mean: %s?\n", strings.Join(suggestions, ", "))
		}
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) < 2 {
		fmt.Fprintln(out, "Invalid input: e.g. covidstats <key> <value>")
		return nil
	}

	client, err := createClient(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	if *update {
		// the poll runs for as long as the session does
		client.RequestUpdate(cmd.Context())
	}

	in := bufio.NewReader(cmd.InOrStdin())
	key, value := args[0], args[1]
	for {
		printMatches(out, client, key, value)

		answer, err := prompt(in, out, "Search again (y/n): ")
		if err != nil || strings.ToLower(answer) != "y" {
			break
		}
		key, err = prompt(in, out, "Search key: ")
		if err != nil {
			break
		}
		value, err = prompt(in, out, "Search value: ")
		if err != nil {
			break
		}
	}

	fmt.Fprintln(out)
	return nil
}
