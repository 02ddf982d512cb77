package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"

	"ptc/internal/agentmd"
	"ptc/internal/command"
	"ptc/internal/config"
	"ptc/internal/modelrt"
	"ptc/internal/render"
	"ptc/internal/sandbox"
	"ptc/internal/session"
	"ptc/internal/tokenutil"
)

// scratchDirs are the sandbox-owned working directories /clear wipes,
// mirroring original_source's slash.py clear handler.
var scratchDirs = []string{"data", "results", "code", "large_tool_results"}

// filesExcludedDirs are hidden from /files unless "all" is passed.
var filesExcludedDirs = map[string]bool{"code": true, "tools": true, "mcp_servers": true}

// imageExtensions auto-download through /view instead of printing inline.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true,
}

// binaryDownloadExtensions fetch as raw bytes through /download; anything
// else is treated as text.
var binaryDownloadExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".bmp": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true,
}

// bashEscapeTimeout bounds a "!"-prefixed bash escape, per spec §4.7.
const bashEscapeTimeout = 60 * time.Second

var quitKeywords = map[string]bool{"quit": true, "exit": true, "q": true}

// runREPL implements C10's outer loop: read line, classify, dispatch.
// Classification order: slash command, bash escape ("!"), quit keyword,
// otherwise a task handed to onTask.
func runREPL(
	ctx context.Context,
	console *render.Console,
	router *command.Router,
	state *command.State,
	onBash func(ctx context.Context, command string) (sandbox.ExecResult, error),
	onTask func(string),
) error {
	homeDir, _ := os.UserHomeDir()
	historyFile := filepath.Join(homeDir, ".ptc_history")

	const escKey = 27

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           readline.NewCancelableStdin(os.Stdin),
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Listener: readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
			if key != escKey {
				return nil, 0, false
			}
			if state.EscHintActive() && state.LastUserMessage != "" {
				state.RevisionRequested = true
				return []rune(state.LastUserMessage), len(state.LastUserMessage), true
			}
			state.ArmEscHint(state.LastUserMessage)
			return nil, 0, false
		}),
	})
	if err != nil {
		return fmt.Errorf("repl: initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if line == "" {
				if state.RegisterCtrlC() {
					console.Println("Goodbye!")
					return nil
				}
				remaining := 3 - state.CtrlCCount
				console.PrintDim(fmt.Sprintf("(press Ctrl+C %d more time(s) within 3s to exit)", remaining))
				continue
			}
			continue
		}
		if err == io.EOF {
			console.Println("Goodbye!")
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case command.IsCommand(line):
			result, err := router.Dispatch(ctx, line)
			if err != nil {
				console.PrintError(err.Error())
				continue
			}
			if result.Output != "" {
				console.Println(result.Output)
			}
			if result.Exit {
				return nil
			}

		case strings.HasPrefix(line, "!"):
			runBashEscape(ctx, console, strings.TrimPrefix(line, "!"), onBash)

		case quitKeywords[strings.ToLower(line)]:
			console.Println("Goodbye!")
			return nil

		default:
			onTask(line)
		}
	}
}

// runBashEscape executes a shell command against the sandbox without ever
// touching the model, per spec §4.7's bash-escape classification.
func runBashEscape(ctx context.Context, console *render.Console, cmd string, onBash func(context.Context, string) (sandbox.ExecResult, error)) {
	console.PrintDim(fmt.Sprintf("! %s", cmd))
	bashCtx, cancel := context.WithTimeout(ctx, bashEscapeTimeout)
	defer cancel()

	res, err := onBash(bashCtx, cmd)
	if err != nil {
		console.PrintError(err.Error())
		return
	}
	if res.Stdout != "" {
		console.Print(res.Stdout)
	}
	if res.Stderr != "" {
		console.PrintError(res.Stderr)
	}
}

// modelSwitcher is implemented by runtimes that support changing models
// between turns, e.g. *modelrt.AnthropicRuntime.
type modelSwitcher interface {
	Model() string
	SetModel(string)
}

// buildRouter wires the closed slash-command table (C9).
func buildRouter(
	cfg config.RuntimeConfig,
	handle *session.Handle,
	state *command.State,
	tracker *tokenutil.Tracker,
	checkpointer *modelrt.Checkpointer,
	runtime modelSwitcher,
) *command.Router {
	r := command.NewRouter()

	exitResult := func(ctx context.Context, args string) (command.Result, error) {
		return command.Result{Exit: true}, nil
	}

	r.Register("help", func(ctx context.Context, args string) (command.Result, error) {
		return command.Result{Output: "/help /clear /files [all] /view <path> /copy <path> /download <path> [local] /plan /auto-approve /tokens /model <name> /agents /exit /q"}, nil
	})
	r.Register("exit", exitResult)
	r.Register("q", exitResult)
	r.Register("clear", func(ctx context.Context, args string) (command.Result, error) {
		state.ResetThread()
		for _, dir := range scratchDirs {
			cmd := fmt.Sprintf("find /home/ptc/%s -mindepth 1 -delete 2>/dev/null || true", dir)
			_, _ = handle.Sandbox.ExecuteBash(ctx, cmd, bashEscapeTimeout)
		}
		return command.Result{Output: "Started a new conversation thread."}, nil
	})
	r.Register("files", func(ctx context.Context, args string) (command.Result, error) {
		return handleFilesCommand(ctx, handle, strings.TrimSpace(args))
	})
	r.Register("view", func(ctx context.Context, args string) (command.Result, error) {
		return handleViewCommand(ctx, handle, strings.TrimSpace(args))
	})
	r.Register("copy", func(ctx context.Context, args string) (command.Result, error) {
		return handleCopyCommand(ctx, handle, strings.TrimSpace(args))
	})
	r.Register("download", func(ctx context.Context, args string) (command.Result, error) {
		return handleDownloadCommand(ctx, handle, strings.TrimSpace(args))
	})
	r.Register("plan", func(ctx context.Context, args string) (command.Result, error) {
		enabled := state.TogglePlanMode()
		return command.Result{Output: fmt.Sprintf("Plan mode: %v", enabled)}, nil
	})
	r.Register("auto-approve", func(ctx context.Context, args string) (command.Result, error) {
		enabled := state.ToggleAutoApprove()
		return command.Result{Output: fmt.Sprintf("Auto-approve: %v", enabled)}, nil
	})
	r.Register("tokens", func(ctx context.Context, args string) (command.Result, error) {
		in, out := tracker.Totals()
		return command.Result{Output: fmt.Sprintf("input=%d output=%d total=%d", in, out, in+out)}, nil
	})
	r.Register("model", func(ctx context.Context, args string) (command.Result, error) {
		if checkpointer.HasActiveConversation(state.ThreadID) {
			return command.Result{}, fmt.Errorf("/model is unavailable mid-conversation; use /clear first")
		}
		args = strings.TrimSpace(args)
		if args == "" {
			return command.Result{Output: fmt.Sprintf("model: %s", runtime.Model())}, nil
		}
		runtime.SetModel(args)
		return command.Result{Output: fmt.Sprintf("model set to %s", args)}, nil
	})
	r.Register("agents", func(ctx context.Context, args string) (command.Result, error) {
		agents, err := agentmd.List(cfg.ResolvedStateRoot())
		if err != nil {
			return command.Result{}, err
		}
		names := make([]string, len(agents))
		for i, a := range agents {
			names[i] = a.Name
		}
		return command.Result{Output: strings.Join(names, ", ")}, nil
	})

	return r
}

// handleFilesCommand implements /files, grounded on original_source's
// slash.py _handle_files_command: list every sandbox file, hide the
// EXCLUDED_DIRS unless "all" was passed, render as an indented tree.
func handleFilesCommand(ctx context.Context, handle *session.Handle, args string) (command.Result, error) {
	showAll := strings.EqualFold(args, "all")

	paths, err := handle.Sandbox.Glob(ctx, ".", "**/*")
	if err != nil {
		return command.Result{}, fmt.Errorf("listing files: %w", err)
	}

	filtered := make([]string, 0, len(paths))
	for _, p := range paths {
		if !showAll && filesExcludedDirs[firstPathSegment(p)] {
			continue
		}
		filtered = append(filtered, p)
	}

	tree := renderFileTree(filtered)
	if !showAll && len(filtered) < len(paths) {
		tree += "\n(Use /files all to include system directories)"
	}
	return command.Result{Output: tree}, nil
}

func firstPathSegment(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

// fileTreeNode is an in-memory directory tree used only to render /files.
type fileTreeNode struct {
	children map[string]*fileTreeNode
	order    []string
}

func newFileTreeNode() *fileTreeNode {
	return &fileTreeNode{children: make(map[string]*fileTreeNode)}
}

func (n *fileTreeNode) insert(parts []string) {
	if len(parts) == 0 {
		return
	}
	head := parts[0]
	child, ok := n.children[head]
	if !ok {
		child = newFileTreeNode()
		n.children[head] = child
		n.order = append(n.order, head)
	}
	child.insert(parts[1:])
}

func renderFileTree(paths []string) string {
	root := newFileTreeNode()
	for _, p := range paths {
		root.insert(strings.Split(p, "/"))
	}
	var b strings.Builder
	renderFileTreeNode(&b, root, "")
	return strings.TrimRight(b.String(), "\n")
}

func renderFileTreeNode(b *strings.Builder, n *fileTreeNode, prefix string) {
	sort.Strings(n.order)
	for i, name := range n.order {
		last := i == len(n.order)-1
		connector, nextPrefix := "├── ", prefix+"│   "
		if last {
			connector, nextPrefix = "└── ", prefix+"    "
		}
		fmt.Fprintf(b, "%s%s%s\n", prefix, connector, name)
		renderFileTreeNode(b, n.children[name], nextPrefix)
	}
}

// handleViewCommand implements /view: image paths are auto-downloaded to a
// local file named after their basename; everything else is read and
// returned as a fenced code block.
func handleViewCommand(ctx context.Context, handle *session.Handle, args string) (command.Result, error) {
	if args == "" {
		return command.Result{}, fmt.Errorf("usage: /view <path>")
	}
	abs := sandbox.NormalizePath(args)

	if imageExtensions[strings.ToLower(filepath.Ext(abs))] {
		data, err := handle.Sandbox.DownloadBytes(ctx, abs)
		if err != nil {
			return command.Result{}, fmt.Errorf("downloading %s: %w", args, err)
		}
		local := filepath.Base(abs)
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return command.Result{}, fmt.Errorf("writing %s: %w", local, err)
		}
		return command.Result{Output: fmt.Sprintf("Saved image to %s", local)}, nil
	}

	content, err := handle.Sandbox.ReadFile(ctx, abs)
	if err != nil {
		return command.Result{}, fmt.Errorf("File not found: %s", args)
	}
	lang := strings.TrimPrefix(filepath.Ext(abs), ".")
	return command.Result{Output: fmt.Sprintf("```%s\n%s\n```", lang, content)}, nil
}

// handleCopyCommand implements /copy: read a sandbox file and push its
// content onto the system clipboard.
func handleCopyCommand(ctx context.Context, handle *session.Handle, args string) (command.Result, error) {
	if args == "" {
		return command.Result{}, fmt.Errorf("usage: /copy <path>")
	}
	abs := sandbox.NormalizePath(args)

	content, err := handle.Sandbox.ReadFile(ctx, abs)
	if err != nil {
		return command.Result{Output: "File not found"}, nil
	}
	if err := clipboard.WriteAll(content); err != nil {
		return command.Result{}, fmt.Errorf("copying to clipboard: %w", err)
	}
	return command.Result{Output: fmt.Sprintf("Copied %s to clipboard", args)}, nil
}

// handleDownloadCommand implements /download: pull a sandbox file to a
// local path, defaulting the local path to the sandbox file's basename and
// choosing a binary or text transfer by extension.
func handleDownloadCommand(ctx context.Context, handle *session.Handle, args string) (command.Result, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return command.Result{}, fmt.Errorf("usage: /download <path> [local]")
	}
	sandboxPath := fields[0]
	abs := sandbox.NormalizePath(sandboxPath)

	local := filepath.Base(abs)
	if len(fields) > 1 {
		local = fields[1]
	}
	if strings.HasPrefix(local, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			local = filepath.Join(home, strings.TrimPrefix(local, "~"))
		}
	}
	local, err := filepath.Abs(local)
	if err != nil {
		return command.Result{}, fmt.Errorf("resolving local path: %w", err)
	}

	if binaryDownloadExtensions[strings.ToLower(filepath.Ext(abs))] {
		data, derr := handle.Sandbox.DownloadBytes(ctx, abs)
		if derr != nil {
			return command.Result{}, fmt.Errorf("downloading %s: %w", sandboxPath, derr)
		}
		if werr := os.WriteFile(local, data, 0o644); werr != nil {
			return command.Result{}, fmt.Errorf("writing %s: %w", local, werr)
		}
	} else {
		content, rerr := handle.Sandbox.ReadFile(ctx, abs)
		if rerr != nil {
			return command.Result{}, fmt.Errorf("File not found: %s", sandboxPath)
		}
		if werr := os.WriteFile(local, []byte(content), 0o644); werr != nil {
			return command.Result{}, fmt.Errorf("writing %s: %w", local, werr)
		}
	}
	return command.Result{Output: fmt.Sprintf("Downloaded %s to %s", sandboxPath, local)}, nil
}
