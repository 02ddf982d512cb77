package main

import "fmt"

const splashArt = `
 ___  ___________
 | \  | |___  ___|
 |  \ | |  | |
 | |\ \| |  | |    coding agent over a remote sandbox
`

func printSplash(agentName, model string) {
	fmt.Println(splashArt)
	fmt.Printf("agent: %s    model: %s\n", agentName, model)
	fmt.Println("Type a task and press Enter. /help for commands, Ctrl+C (x3) to quit.")
	fmt.Println()
}

func printUsage() {
	fmt.Println(`ptc - an interactive coding agent CLI over a remote sandbox

Usage:
  ptc [flags]            start an interactive session
  ptc list                list known agents
  ptc reset <agent>       reset an agent's memory file
  ptc help                show this message

Flags:
  --agent <name>          agent profile to use (default "default")
  --auto-approve          skip HITL plan approval
  --sandbox-id <id>       reattach to a specific sandbox instead of resolving one
  --no-splash             suppress the startup banner
  --new-sandbox           force a freshly created sandbox, ignoring any persisted session
  --plan-mode             start with plan mode enabled
  --model <name>          model identifier to use
  --verbose               mirror structured logs to stderr
  --no-persist            don't persist the session for reuse across runs`)
}
