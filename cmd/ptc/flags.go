package main

import (
	"fmt"
	"strings"

	"ptc/internal/config"
)

// cliOptions holds the nine flags spec §6.4 names, hand-parsed rather than
// via a flags/cobra library, matching the teacher's cmd/alex/flags.go
// convention of a tiny bespoke parser for a small, fixed flag set.
type cliOptions struct {
	agent          *string
	autoApprove    *bool
	sandboxID      *string
	noSplash       *bool
	newSandbox     *bool
	planMode       *bool
	model          *string
	verbose        *bool
	noPersist      *bool
}

// subcommand is one of the three named in spec §6.4 ("list", "reset",
// "help"); empty means the default interactive session.
type parsedArgs struct {
	subcommand string
	subArgs    []string
	opts       cliOptions
}

func parseArgs(args []string) (parsedArgs, error) {
	var out parsedArgs
	var filtered []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			filtered = append(filtered, arg)
			continue
		}

		consumed := true
		switch {
		case arg == "--agent" || strings.HasPrefix(arg, "--agent="):
			v, err := flagValue(arg, args, &i)
			if err != nil {
				return out, err
			}
			out.opts.agent = &v
		case arg == "--auto-approve":
			out.opts.autoApprove = boolPtr(true)
		case arg == "--sandbox-id" || strings.HasPrefix(arg, "--sandbox-id="):
			v, err := flagValue(arg, args, &i)
			if err != nil {
				return out, err
			}
			out.opts.sandboxID = &v
		case arg == "--no-splash":
			out.opts.noSplash = boolPtr(true)
		case arg == "--new-sandbox":
			out.opts.newSandbox = boolPtr(true)
		case arg == "--plan-mode":
			out.opts.planMode = boolPtr(true)
		case arg == "--model" || strings.HasPrefix(arg, "--model="):
			v, err := flagValue(arg, args, &i)
			if err != nil {
				return out, err
			}
			out.opts.model = &v
		case arg == "--verbose":
			out.opts.verbose = boolPtr(true)
		case arg == "--no-persist":
			out.opts.noPersist = boolPtr(true)
		default:
			consumed = false
		}

		if !consumed {
			filtered = append(filtered, arg)
		}
	}

	if len(filtered) > 0 {
		switch filtered[0] {
		case "list", "reset", "help":
			out.subcommand = filtered[0]
			out.subArgs = filtered[1:]
		default:
			return out, fmt.Errorf("ptc: unknown argument %q", filtered[0])
		}
	}

	return out, nil
}

func flagValue(current string, args []string, idx *int) (string, error) {
	if eq := strings.IndexByte(current, '='); eq != -1 {
		return current[eq+1:], nil
	}
	next := *idx + 1
	if next >= len(args) {
		return "", fmt.Errorf("flag %s requires a value", current)
	}
	*idx = next
	return args[next], nil
}

func boolPtr(v bool) *bool { return &v }

// loaderOptions converts cliOptions into config.Option overrides.
func (o cliOptions) loaderOptions() []config.Option {
	overrides := config.Overrides{}
	if o.agent != nil {
		overrides.AgentName = o.agent
	}
	if o.autoApprove != nil {
		overrides.AutoApprove = o.autoApprove
	}
	if o.planMode != nil {
		overrides.PlanMode = o.planMode
	}
	if o.model != nil {
		overrides.Model = o.model
	}
	if o.verbose != nil {
		overrides.Verbose = o.verbose
	}
	if o.noPersist != nil {
		persist := !*o.noPersist
		overrides.PersistSession = &persist
	}
	return []config.Option{config.WithOverrides(overrides)}
}
