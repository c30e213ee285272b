// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/shakah/recomenda-ia/internal/core/model"
	"github.com/shakah/recomenda-ia/internal/core/services"
	rerrors "github.com/shakah/recomenda-ia/internal/errors"
	"github.com/shakah/recomenda-ia/internal/trailer"
)

// Searcher runs a recommendation search.
type Searcher interface {
	Search(ctx context.Context, query string, emit func(model.Update), opts ...services.SearchOption) error
}

// TrailerFinder finds the trailer of a title.
type TrailerFinder interface {
	Find(ctx context.Context, title string, year string) (trailer.Trailer, error)
}

// deps are the services behind the commands. searcher is built on first use
// so commands that only touch saved lists need no API keys.
type deps struct {
	searcher func() (Searcher, error)
	lists    *services.SavedListService
	trailers TrailerFinder
	out      io.Writer
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "recomenda",
		Usage:   "Movie and series recommendations",
		Version: Version,
		Writer:  d.out,
		Commands: []*cli.Command{
			searchCmd(d),
			listsCmd(d),
			showCmd(d),
			deleteCmd(d),
			trailerCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// searchCmd creates the search command.
func searchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Recommend titles for a free-text query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Number of titles"},
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Save the result as a list"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Display title of the saved list"},
			&cli.BoolFlag{Name: "progress", Usage: "Print every update as a JSON line"},
		},
		Action: func(c *cli.Context) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return outputError(rerrors.NewInvalidRequest("query is required"))
			}
			searcher, err := d.searcher()
			if err != nil {
				return outputError(err)
			}

			var opts []services.SearchOption
			if c.IsSet("count") {
				opts = append(opts, services.WithCount(c.Int("count")))
			}

			var last model.Update
			progress := c.Bool("progress")
			emit := func(u model.Update) {
				last = u
				if progress {
					_ = writeJSONLine(d.out, u)
				}
			}
			if err := searcher.Search(c.Context, query, emit, opts...); err != nil {
				return outputError(err)
			}

			if c.Bool("save") && len(last.Titles) > 0 {
				saved, err := d.lists.Save(c.Context, last.Titles, c.String("title"))
				if err != nil {
					return outputError(err)
				}
				return outputJSON(d.out, saved)
			}
			if progress {
				return nil
			}
			titles := last.Titles
			if titles == nil {
				titles = []model.Title{}
			}
			return outputJSON(d.out, titles)
		},
	}
}

// listsCmd creates the lists command.
func listsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "Show all saved lists",
		Action: func(c *cli.Context) error {
			out, err := d.lists.ListAll(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.out, out)
		},
	}
}

// showCmd creates the show command.
func showCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one saved list",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(rerrors.NewInvalidRequest("id is required"))
			}
			out, err := d.lists.Find(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.out, out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved list and print the remaining ones",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(rerrors.NewInvalidRequest("id is required"))
			}
			out, err := d.lists.Delete(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.out, out)
		},
	}
}

// trailerCmd creates the trailer command.
func trailerCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "trailer",
		Usage:     "Find the trailer of a title",
		ArgsUsage: "<title>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "year", Aliases: []string{"y"}, Usage: "Release year"},
		},
		Action: func(c *cli.Context) error {
			title := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if title == "" {
				return outputError(rerrors.NewInvalidRequest("title is required"))
			}
			out, err := d.trailers.Find(c.Context, title, c.String("year"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(d.out, out)
		},
	}
}

func outputJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return outputError(err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputError formats error for CLI.
func outputError(err error) error {
	var recErr *rerrors.RecError
	if errors.As(err, &recErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", recErr.Code, recErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
