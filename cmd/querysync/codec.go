package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/querysync/pkg/urlcodec"
)

func encodeCmd() *cobra.Command {
	var (
		attrs []string
		param string
	)

	cmd := &cobra.Command{
		Use:   "encode <json>",
		Short: "Encode a JSON value as a query parameter value",
		Long: `Encode a JSON value the way a bound property is written to the URL.

Records with an "id" field are reduced to the id and their label, name or
title. Use --attrs to choose the fields instead. A null value means the
parameter is removed.

Examples:
  querysync encode '"central"'
  querysync encode '{"id": 7, "name": "Central", "address": "Main St"}'
  querysync encode --attrs id,address '{"id": 7, "name": "Central", "address": "Main St"}'
  querysync encode --param month '"2024-03"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := urlcodec.Decode(args[0])
			if err != nil {
				return err
			}

			var opts []urlcodec.Option
			if len(attrs) > 0 {
				opts = append(opts, urlcodec.Attrs(attrs...))
			}

			w := cmd.OutOrStdout()
			s, ok := urlcodec.Encode(v, opts...)
			switch {
			case !ok:
				fmt.Fprintln(w, "(absent)")
			case param != "":
				fmt.Fprintln(w, url.Values{param: {s}}.Encode())
			default:
				fmt.Fprintln(w, s)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&attrs, "attrs", nil, "Record fields to encode, in order")
	cmd.Flags().StringVarP(&param, "param", "p", "", "Print as an escaped name=value pair")

	return cmd
}

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <text>",
		Short: "Decode a query parameter value",
		Long: `Decode a query parameter value the way a bound property reads it.

The value's Go type and its JSON form are printed. Escaped text such as
%7B%22id%22%3A7%7D is unescaped first.

Examples:
  querysync decode central
  querysync decode 2024-03
  querysync decode '[1,2,3]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			if strings.Contains(text, "%") {
				if unescaped, err := url.QueryUnescape(text); err == nil {
					text = unescaped
				}
			}

			v, err := urlcodec.Decode(text)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", typeName(v), display(v))
			return nil
		},
	}
	return cmd
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func display(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
