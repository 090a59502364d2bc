package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dvcrn/console-client/internal/request"
	"github.com/spf13/cobra"
)

func requestCmd(st *state) *cobra.Command {
	var (
		data    string
		ret     string
		params  []string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Send an authenticated request and print the result",
		Example: `  consolectl request GET /user/me
  consolectl request POST /role --data '{"code":"editor","name":"Editor"}'
  consolectl request GET /user --param page=2 --return body`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := request.ResponseReturn(ret)
			switch mode {
			case request.ReturnData, request.ReturnBody, request.ReturnRaw:
			default:
				return fmt.Errorf("invalid --return %q, expected data, body or raw", ret)
			}

			opts := []request.CallOption{request.WithReturn(mode)}
			if len(params) > 0 {
				values := url.Values{}
				for _, p := range params {
					k, v, ok := strings.Cut(p, "=")
					if !ok {
						return fmt.Errorf("invalid --param %q, expected key=value", p)
					}
					values.Add(k, v)
				}
				opts = append(opts, request.WithParams(values))
			}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("invalid --header %q, expected Name: value", h)
				}
				opts = append(opts, request.WithHeader(strings.TrimSpace(k), strings.TrimSpace(v)))
			}
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				opts = append(opts, request.WithBody([]byte(data), "application/json"))
			}

			resp, err := st.console.Client.Do(cmd.Context(), strings.ToUpper(args[0]), args[1], opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if mode == request.ReturnRaw {
				fmt.Fprintf(out, "HTTP %d\n", resp.Status)
				fmt.Fprintln(out, string(resp.Body))
				return nil
			}
			pretty, err := json.MarshalIndent(resp.Data, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to format response: %w", err)
			}
			fmt.Fprintln(out, string(pretty))
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringVar(&ret, "return", string(request.ReturnData), "What to print: data, body or raw")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
	return cmd
}
