package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/render"
	"github.com/fragmede/hams/internal/thread"
)

const textWidth = 76

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPostTable prints a list of posts as a formatted table.
func printPostTable(w io.Writer, posts []*api.Post, now time.Time) error {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE\tAUTHOR\tCOMMENTS\tPOSTED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, p := range posts {
		author := p.Author()
		if p.IsAnonymous {
			author = "anonymous"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.Category, truncate(p.Title, 40), author, p.CommentCount,
			render.TimeAgo(p.CreatedAt.Time, now)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(w, "\nTotal: %d posts\n", len(posts))
	return nil
}

// threadView is the JSON shape of posts show.
type threadView struct {
	Post     *api.Post    `json:"post"`
	MaxDepth int          `json:"max_depth"`
	Comments []commentRow `json:"comments"`
}

type commentRow struct {
	*api.Comment
	Depth    int  `json:"depth"`
	CanReply bool `json:"can_reply"`
}

func buildThreadView(t *api.Thread) (threadView, error) {
	v := threadView{Post: t.Post, MaxDepth: t.MaxDepth, Comments: []commentRow{}}
	tree, err := thread.Build(t.Comments)
	if err != nil {
		return v, err
	}
	for _, row := range tree.Flatten(nil, t.MaxDepth) {
		v.Comments = append(v.Comments, commentRow{Comment: row.Comment, Depth: row.Depth, CanReply: row.CanReply})
	}
	return v, nil
}

// printThread prints a post followed by its comments as an indented tree.
// Replies are marked with └ and comments at the depth limit are flagged.
func printThread(w io.Writer, v threadView, now time.Time) {
	p := v.Post
	fmt.Fprintf(w, "#%d [%s] %s\n", p.ID, p.Category, p.Title)
	author := p.Author()
	if p.IsAnonymous {
		author = "anonymous"
	}
	fmt.Fprintf(w, "  by %s | %s | %d comments | max depth %d\n\n",
		author, render.TimeAgo(p.CreatedAt.Time, now), len(v.Comments), v.MaxDepth)
	writeIndented(w, render.ContentToText(p.Content, textWidth), "  ")
	fmt.Fprintln(w)

	if len(v.Comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}

	fmt.Fprintf(w, "Comments (%d):\n", len(v.Comments))
	for _, c := range v.Comments {
		indent := strings.Repeat("  ", c.Depth-1)
		marker := "• "
		if c.Depth > 1 {
			marker = "└ "
		}
		line := fmt.Sprintf("%s%s#%d %s · %s", indent, marker, c.ID, c.Author(), render.TimeAgo(c.CreatedAt.Time, now))
		if !c.CanReply {
			line += "  [max depth]"
		}
		fmt.Fprintln(w, line)
		writeIndented(w, render.ContentToText(c.Content, max(textWidth-len(indent), 20)), indent+"  ")
	}
}

func writeIndented(w io.Writer, text, indent string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintln(w, indent+line)
	}
}

// printBots prints bots as a table.
func printBots(w io.Writer, bots []*api.Bot) error {
	if len(bots) == 0 {
		fmt.Fprintln(w, "No bots yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROVIDER\tMODEL\tACTIVE\tTOPIC")
	for _, b := range bots {
		active := "no"
		if b.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, b.AIProvider, b.AIModel, active, truncate(b.Topic, 30))
	}
	return tw.Flush()
}

// truncate shortens s to at most n runes, adding "..." if truncated.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
