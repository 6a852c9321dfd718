package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/iafan/cwalk"
	"github.com/urfave/cli/v2"

	"github.com/cognicore/chainer/internal/repl"
	"github.com/cognicore/chainer/internal/rpc"
	"github.com/cognicore/chainer/pkg/chainer"
	"github.com/cognicore/chainer/pkg/chainer/config"
	"github.com/cognicore/chainer/pkg/chainer/export"
	"github.com/cognicore/chainer/pkg/chainer/logic"
	"github.com/cognicore/chainer/pkg/chainer/report"
	"github.com/cognicore/chainer/pkg/chainer/rules"
)

func askCmd(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return cli.Exit("usage: chainer ask <kb-file> [goal]", 2)
	}
	l := loader(ctx, ctx.Args().Get(0))
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c := chainer.New(chainer.Options{Store: comp.Store, Inference: comp.Engine})
	defer c.Close()

	kbf := comp.KnowledgeBases[0]
	goal := kbf.Goal
	if q := ctx.Args().Get(1); q != "" {
		if goal, err = rules.ParseGoal(q); err != nil {
			return err
		}
	}
	if goal.IsZero() {
		return cli.Exit(fmt.Sprintf("%s poses no goal; pass one as the second argument", ctx.Args().Get(0)), 2)
	}

	if err := c.Load(ctx.Context, kbf.Name, kbf.KB); err != nil {
		return err
	}
	actx, cancel := askContext(ctx)
	defer cancel()
	r, err := c.Ask(actx, kbf.Name, goal)
	if err != nil {
		return err
	}
	if err := writeReport(ctx.App.Writer, ctx.String("format"), r); err != nil {
		return err
	}
	if !r.Proven() {
		return cli.Exit("", 1)
	}
	return nil
}

func writeReport(w io.Writer, format string, r report.Report) error {
	switch format {
	case "", "text":
		return report.WriteText(w, r)
	case "json":
		return report.WriteJSON(w, r)
	case "html":
		return report.WriteHTML(w, r)
	}
	return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
}

// checkResult is one line of the check summary.
type checkResult struct {
	path    string
	goal    string
	outcome string
	err     error
}

func checkCmd(ctx *cli.Context) error {
	root := ctx.Args().Get(0)
	if root == "" {
		return cli.Exit("usage: chainer check <dir>", 2)
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	err := cwalk.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".kb", ".yaml", ".yml":
			mu.Lock()
			paths = append(paths, filepath.Join(root, path))
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)

	l := loader(ctx)
	// Concurrent traces would interleave.
	adjust := l.Adjust
	l.Adjust = func(c *config.Config) {
		adjust(c)
		c.Trace.Enabled = false
	}
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c := chainer.New(chainer.Options{Store: comp.Store, Inference: comp.Engine})
	defer c.Close()

	results := make([]checkResult, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			actx, cancel := askContext(ctx)
			defer cancel()
			results[i] = checkFile(actx, c, i, path)
		}(i, path)
	}
	wg.Wait()

	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\terror: %v\n", r.path, r.goal, r.err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.path, r.goal, r.outcome)
	}
	tw.Flush()
	fmt.Fprintf(ctx.App.Writer, "%d files, %d errors\n", len(results), failed)
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func checkFile(ctx context.Context, c *chainer.Chainer, i int, path string) checkResult {
	res := checkResult{path: path}
	kbf, err := config.LoadKnowledgeBase(path)
	if err != nil {
		res.err = err
		return res
	}
	if !kbf.HasGoal() {
		res.outcome = "no goal"
		return res
	}
	res.goal = kbf.Goal.String()

	// Files run concurrently and base names may repeat across directories.
	name := fmt.Sprintf("check-%d-%s", i, kbf.Name)
	if err := c.Load(ctx, name, kbf.KB); err != nil {
		res.err = err
		return res
	}
	r, err := c.Ask(ctx, name, kbf.Goal)
	if err != nil {
		res.err = err
		return res
	}
	res.outcome = r.Outcome
	return res
}

func exportCmd(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("usage: chainer export <kb-file>", 2)
	}
	kbf, err := config.LoadKnowledgeBase(ctx.Args().Get(0))
	if err != nil {
		return err
	}

	if out := ctx.String("out"); out != "" {
		exp := export.PrologExporter{Writer: export.FileWriter{Path: out}}
		return exp.Export(ctx.Context, kbf.KB)
	}
	var extra []logic.Predicate
	if kbf.HasGoal() {
		extra = append(extra, kbf.Goal)
	}
	_, err = io.WriteString(ctx.App.Writer, export.Program(kbf.KB, extra...))
	return err
}

func importCmd(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.Exit("usage: chainer import <kb-file>...", 2)
	}
	l := loader(ctx, ctx.Args().Slice()...)
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c := chainer.New(chainer.Options{Store: comp.Store, Inference: comp.Engine})
	defer c.Close()

	for _, kbf := range comp.KnowledgeBases {
		if err := c.Load(ctx.Context, kbf.Name, kbf.KB); err != nil {
			return fmt.Errorf("import %s: %w", kbf.Name, err)
		}
		fmt.Fprintf(ctx.App.Writer, "%s: %d facts, %d rules\n", kbf.Name, len(kbf.KB.Facts), len(kbf.KB.Rules))
	}
	if comp.Config.Store.Driver == "memory" {
		fmt.Fprintln(ctx.App.ErrWriter, "note: memory store; nothing persists after exit (use --store)")
	}
	return nil
}

func runsCmd(ctx *cli.Context) error {
	l := loader(ctx)
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c := chainer.New(chainer.Options{Store: comp.Store, Inference: comp.Engine})
	defer c.Close()

	runs, err := c.Runs(ctx.Context, ctx.Args().Get(0), ctx.Int("limit"))
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKB\tGOAL\tOUTCOME\tROUNDS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.KnowledgeBase, r.Goal, r.Outcome, r.Rounds, r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func serveCmd(ctx *cli.Context) error {
	l := loader(ctx)
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	c := chainer.New(chainer.Options{Store: comp.Store, Inference: comp.Engine})
	defer c.Close()

	sctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer stop()

	srv := rpc.NewServer(c)
	addr := ctx.String("listen")
	if addr == "" {
		srv.ServeConn(sctx, rpc.Stdio())
		return nil
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.ErrWriter, "listening on %s\n", lis.Addr())
	return srv.Serve(sctx, lis)
}

func replCmd(ctx *cli.Context) error {
	l := loader(ctx, ctx.Args().Slice()...)
	comp, err := l.Load(ctx.Context)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer comp.Close()

	s := repl.NewSession(comp.Engine, nil, ctx.App.Writer)
	for _, kbf := range comp.KnowledgeBases {
		if err := s.Merge(kbf.KB); err != nil {
			return err
		}
	}
	err = repl.Run(ctx.Context, s, repl.Config{HistoryFile: ctx.String("history")})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
