// chatctl is the operator console: it drives the REST API from the
// terminal for user listing, history inspection, search and runtime
// stats.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

const usage = `Usage: chatctl [flags] <command> [args]

Commands:
  users                        list registered users and live status
  history <peer>               private history with <peer>
  group-history <groupID>      history of a group you belong to
  search <terms>               full-text search over messages
  stats                        runtime counters and process stats

Flags:
  -server   base URL of the service (default $CHATCTL_SERVER or http://localhost:8080)
  -token    bearer token (default $CHATCTL_TOKEN)
  -limit    page size for history and search
  -group    group filter for search
  -lang     language filter for search
`

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	if err := run(); err != nil {
		color.Error.Println(err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	server := flag.String("server", envOr("CHATCTL_SERVER", "http://localhost:8080"), "base URL of the service")
	token := flag.String("token", os.Getenv("CHATCTL_TOKEN"), "bearer token")
	limit := flag.Int("limit", 0, "page size for history and search")
	group := flag.String("group", "", "group filter for search")
	lang := flag.String("lang", "", "language filter for search")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	c := &client{
		base:  *server,
		token: *token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}

	switch cmd := flag.Arg(0); cmd {
	case "users":
		return c.users()
	case "history":
		if flag.NArg() < 2 {
			return fmt.Errorf("history requires a peer username")
		}
		return c.history("/api/messages/private/"+url.PathEscape(flag.Arg(1)), *limit)
	case "group-history":
		if flag.NArg() < 2 {
			return fmt.Errorf("group-history requires a group ID")
		}
		return c.history("/api/messages/group/"+url.PathEscape(flag.Arg(1)), *limit)
	case "search":
		if flag.NArg() < 2 {
			return fmt.Errorf("search requires query terms")
		}
		return c.search(flag.Arg(1), *group, *lang, *limit)
	case "stats":
		return c.stats()
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *client) get(path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}
	return json.Unmarshal(body, out)
}

type userRow struct {
	Username string    `json:"username"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`
}

func (c *client) users() error {
	var rows []userRow
	if err := c.get("/api/users", nil, &rows); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Username", "Status", "Last Seen"})
	for _, row := range rows {
		status := color.Red.Sprint(row.Status)
		if row.Status == "ONLINE" {
			status = color.Green.Sprint(row.Status)
		}
		table.Append([]string{row.Username, status, formatTime(row.LastSeen)})
	}
	table.Render()
	return nil
}

type messageRow struct {
	Sender   string    `json:"sender"`
	Receiver string    `json:"receiver,omitempty"`
	GroupID  string    `json:"group,omitempty"`
	Content  string    `json:"content"`
	Lang     string    `json:"lang,omitempty"`
	At       time.Time `json:"at"`
}

func (c *client) history(path string, limit int) error {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var rows []messageRow
	if err := c.get(path, query, &rows); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Content", "Lang"})
	for _, row := range rows {
		table.Append([]string{formatTime(row.At), row.Sender, row.Content, row.Lang})
	}
	table.Render()
	color.Gray.Printf("%d message(s)\n", len(rows))
	return nil
}

type searchHit struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Group   string    `json:"group,omitempty"`
	Lang    string    `json:"lang,omitempty"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

func (c *client) search(terms, group, lang string, limit int) error {
	query := url.Values{"q": {terms}}
	if group != "" {
		query.Set("group", group)
	}
	if lang != "" {
		query.Set("lang", lang)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var hits []searchHit
	if err := c.get("/api/messages/search", query, &hits); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Group", "Content", "Lang"})
	for _, hit := range hits {
		table.Append([]string{formatTime(hit.At), hit.Sender, hit.Group, hit.Content, hit.Lang})
	}
	table.Render()
	color.Gray.Printf("%d hit(s)\n", len(hits))
	return nil
}

func (c *client) stats() error {
	var snapshot map[string]any
	if err := c.get("/api/stats", nil, &snapshot); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	for key, value := range snapshot {
		table.Append([]string{key, fmt.Sprintf("%v", value)})
	}
	table.Render()
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
