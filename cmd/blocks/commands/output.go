package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
	"github.com/itchyny/gojq"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	defaultJSONIndent = "  "
)

// render writes value in the configured output format. A jq expression
// always produces JSON.
func render(cmd *cobra.Command, value interface{}, table func(w io.Writer) error) error {
	out := cmd.OutOrStdout()

	if expr := jqExpression(cmd); expr != "" {
		filtered, err := applyFilter(value, expr)
		if err != nil {
			return err
		}

		return writeJSON(out, filtered)
	}

	switch viper.GetString("output") {
	case constants.FormatJSON:
		return writeJSON(out, value)
	case constants.FormatYAML:
		return writeYAML(out, value)
	case constants.FormatTable, "":
		return table(out)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, viper.GetString("output"))
	}
}

func jqExpression(cmd *cobra.Command) string {
	flag := cmd.Flags().Lookup("jq")
	if flag == nil {
		return ""
	}

	return flag.Value.String()
}

func writeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", defaultJSONIndent)

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func writeYAML(out io.Writer, value interface{}) error {
	generic, err := toGeneric(value)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(out)
	defer func() { _ = encoder.Close() }()

	if err := encoder.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// toGeneric round-trips value through JSON so YAML and jq see the same
// field names as the JSON output.
func toGeneric(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}

	return generic, nil
}

// applyFilter runs a jq expression over value. A single result is returned
// as is, several results as an array.
func applyFilter(value interface{}, expression string) (interface{}, error) {
	expression = strings.ReplaceAll(expression, `\!`, `!`)

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	data, err := toGeneric(value)
	if err != nil {
		return nil, err
	}

	iter := query.Run(data)

	var results []interface{}

	for {
		result, ok := iter.Next()
		if !ok {
			break
		}

		if err, ok := result.(error); ok {
			return nil, fmt.Errorf("jq error: %w", err)
		}

		results = append(results, result)
	}

	if len(results) == 1 {
		return results[0], nil
	}

	return results, nil
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	elements := make([]any, len(headers))
	for i, header := range headers {
		elements[i] = header
	}

	table := tablewriter.NewWriter(out)
	table.Header(elements...)

	return table
}

func renderTable(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderResourceTable prints resources with one column per attribute.
func renderResourceTable(out io.Writer, resources []*jsonapi.Resource) error {
	keys := attributeKeys(resources)
	title := cases.Title(language.English)

	headers := []string{"ID", "Type"}
	for _, key := range keys {
		headers = append(headers, title.String(strings.ReplaceAll(key, "_", " ")))
	}

	table := newTable(out, headers...)

	for _, res := range resources {
		row := []string{res.ID, res.Type}
		for _, key := range keys {
			row = append(row, formatCell(res.Attr(key)))
		}

		_ = table.Append(row)
	}

	return renderTable(table)
}

// renderResourceDetails prints one resource as property/value rows.
func renderResourceDetails(out io.Writer, res *jsonapi.Resource) error {
	table := newTable(out, "Property", "Value")

	_ = table.Append([]string{"ID", res.ID})
	_ = table.Append([]string{"Type", res.Type})

	for _, key := range attributeKeys([]*jsonapi.Resource{res}) {
		_ = table.Append([]string{key, formatCell(res.Attr(key))})
	}

	names := make([]string, 0, len(res.Relationships))
	for name := range res.Relationships {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		ids := jsonapi.RelatedIDs(res, name)
		refs := make([]string, 0, len(ids))

		for _, id := range ids {
			refs = append(refs, id.Key())
		}

		_ = table.Append([]string{name + " (relationship)", strings.Join(refs, ", ")})
	}

	return renderTable(table)
}

func attributeKeys(resources []*jsonapi.Resource) []string {
	seen := map[string]struct{}{}

	for _, res := range resources {
		for key := range res.Attributes {
			seen[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func formatCell(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(typed)
		if err != nil {
			return NotAvailable
		}

		return string(data)
	default:
		return jsonapi.ParseString(typed)
	}
}

func pageFooter(out io.Writer, meta jsonapi.PageMeta) {
	_, _ = fmt.Fprintf(out, "Page %d of %d (%d total)\n", meta.Page, meta.TotalPages, meta.TotalCount)
}
