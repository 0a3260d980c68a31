package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docembed/internal/embedding"
	"docembed/internal/service"
)

const (
	formatJSON = "json"
	formatText = "text"
)

func newEmbedCmd(a *app) *cobra.Command {
	var (
		pf     providerFlags
		files  []string
		stdin  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "embed [documents...]",
		Short: "Embed documents given as arguments, files or stdin lines",
		Example: `  docembed embed "first document" "second document"
  docembed embed --module openai --type OpenAIEmbeddings -o dimensions=2 hello
  docembed embed --file 'notes/*.txt' --format text
  cat docs.txt | docembed embed --stdin --async`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatText {
				return fmt.Errorf("invalid format %q: expected json or text", format)
			}
			req, err := pf.request()
			if err != nil {
				return err
			}

			if len(files) > 0 {
				if len(args) > 0 || stdin {
					return errors.New("--file cannot be combined with document arguments or --stdin")
				}
				out, err := a.svc.EmbedFiles(cmd.Context(), files, req)
				if err != nil {
					return err
				}
				return writeFileEmbeddings(cmd.OutOrStdout(), out, format)
			}

			docs := args
			if stdin {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				docs = append(docs, lines...)
			}
			if len(docs) == 0 {
				return errors.New("no documents given")
			}
			req.Documents = docs
			resp, err := a.svc.Embed(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeResponse(cmd.OutOrStdout(), docs, resp, format)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringArrayVar(&files, "file", nil, "embed each file matching this glob as one document (repeatable)")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read one document per non-empty line from stdin")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json or text")
	return cmd
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func writeResponse(w io.Writer, docs []string, resp *service.Response, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %s/%s\n", resp.Module, resp.Type)
	fmt.Fprintln(tw, "INDEX\tDIM\tDOCUMENT\tVECTOR")
	for i, v := range resp.Embeddings {
		doc := ""
		if i < len(docs) {
			doc = truncate(docs[i], 32)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i, len(v), doc, preview(v, 4))
	}
	return tw.Flush()
}

func writeFileEmbeddings(w io.Writer, files []service.FileEmbedding, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDIM\tPATH\tVECTOR")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", f.ID, len(f.Embedding), f.Path, preview(f.Embedding, 4))
	}
	return tw.Flush()
}

func preview(v embedding.Embedding, n int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i == n {
			b.WriteString(" ...")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.4f", x)
	}
	b.WriteByte(']')
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
