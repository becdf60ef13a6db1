package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/fivetwenty-io/blocks-sdk/pkg/jsonapi"
	"github.com/spf13/cobra"
)

// listFlags holds the paging and query flags shared by list commands.
type listFlags struct {
	page    int
	perPage int
	all     bool
	include []string
	sort    string
	filters map[string]string
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.perPage, "per-page", constants.DefaultPageSize, "results per page")
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch all pages")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "relationships to include")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort expression, e.g. -created_at")
	cmd.Flags().StringToStringVar(&f.filters, "filter", nil, "filters as key=value")
	addJQFlag(cmd)
}

func (f *listFlags) params() *blocks.QueryParams {
	params := blocks.NewQueryParams().WithPage(f.page).WithPerPage(f.perPage)

	if len(f.include) > 0 {
		params.WithInclude(f.include...)
	}

	if f.sort != "" {
		params.WithSort(f.sort)
	}

	for key, value := range f.filters {
		params.WithFilter(key, value)
	}

	return params
}

func (f *listFlags) fetchAllOptions() *jsonapi.FetchAllOptions {
	perPage := f.perPage
	if perPage == constants.DefaultPageSize {
		perPage = constants.StandardPageSize
	}

	return &jsonapi.FetchAllOptions{PerPage: perPage}
}

func addJQFlag(cmd *cobra.Command) {
	cmd.Flags().String("jq", "", "filter JSON output with a jq expression")
}

// NewGetCommand creates the raw get command.
func NewGetCommand() *cobra.Command {
	var include []string

	cmd := &cobra.Command{
		Use:   "get BLOCK PATH",
		Short: "Fetch any document from a block",
		Long: `Fetch any document from a block and print it.

JSON output is the document as returned by the block.`,
		Example: `  blocks get identity /users/42 --include role
  blocks get commerce /orders/7 --jq '.data.attributes.total'`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := newBlocksClient(loadConfig())
			if err != nil {
				return err
			}
			defer cleanup()

			transport, err := client.Transport(args[0])
			if err != nil {
				return err
			}

			var opts *blocks.RequestOptions
			if len(include) > 0 {
				opts = &blocks.RequestOptions{Params: blocks.NewQueryParams().WithInclude(include...).ToParams()}
			}

			resp, err := transport.Get(cmd.Context(), args[1], opts)
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[1], err)
			}

			doc, err := jsonapi.Parse(resp.Body)
			if err != nil {
				return err
			}

			return render(cmd, doc, func(out io.Writer) error {
				return renderDocument(out, doc)
			})
		},
	}

	cmd.Flags().StringSliceVar(&include, "include", nil, "relationships to include")
	addJQFlag(cmd)

	return cmd
}

// NewListCommand creates the raw list command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list BLOCK PATH",
		Short: "List a collection of any block",
		Example: `  blocks list identity /users --per-page 50
  blocks list commerce /orders --all --filter status=pending --output json`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := newBlocksClient(loadConfig())
			if err != nil {
				return err
			}
			defer cleanup()

			transport, err := client.Transport(args[0])
			if err != nil {
				return err
			}

			fetch := resourcePages(transport, args[1], flags.params())

			if flags.all {
				resources, err := jsonapi.FetchAllPages(cmd.Context(), fetch, flags.fetchAllOptions())
				if err != nil {
					return err
				}

				return render(cmd, resources, func(out io.Writer) error {
					if len(resources) == 0 {
						_, _ = fmt.Fprintln(out, "No resources found")

						return nil
					}

					return renderResourceTable(out, resources)
				})
			}

			page, err := fetch(cmd.Context(), flags.page, flags.perPage)
			if err != nil {
				return err
			}

			return render(cmd, page, func(out io.Writer) error {
				if len(page.Data) == 0 {
					_, _ = fmt.Fprintln(out, "No resources found")

					return nil
				}

				if err := renderResourceTable(out, page.Data); err != nil {
					return err
				}

				pageFooter(out, page.Meta)

				return nil
			})
		},
	}

	flags.bind(cmd)

	return cmd
}

func rawResource(res *jsonapi.Resource, _ *jsonapi.Index) *jsonapi.Resource {
	return res
}

// resourcePages pages through path without mapping the resources.
func resourcePages(transport blocks.Transport, path string, params *blocks.QueryParams) jsonapi.PageFetcher[*jsonapi.Resource] {
	return func(ctx context.Context, page, perPage int) (*jsonapi.PageResult[*jsonapi.Resource], error) {
		query := params.Clone().WithPage(page).WithPerPage(perPage)

		resp, err := transport.Get(ctx, path, &blocks.RequestOptions{Params: query.ToParams()})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}

		return jsonapi.UnmarshalPage(resp.Body, rawResource)
	}
}

func renderDocument(out io.Writer, doc *jsonapi.Document) error {
	primary := doc.Primary()

	switch {
	case doc.IsCollection && len(primary) == 0:
		_, _ = fmt.Fprintln(out, "No resources found")

		return nil
	case doc.IsCollection:
		return renderResourceTable(out, primary)
	case len(primary) == 0:
		_, _ = fmt.Fprintln(out, "No data")

		return nil
	}

	if err := renderResourceDetails(out, primary[0]); err != nil {
		return err
	}

	if len(doc.Included) > 0 {
		_, _ = fmt.Fprintln(out, "\nIncluded:")

		return renderResourceTable(out, doc.Included)
	}

	return nil
}
